package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/data/repos"
	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

type SessionHandler struct {
	tracking services.TrackingService
}

func NewSessionHandler(tracking services.TrackingService) *SessionHandler {
	return &SessionHandler{tracking: tracking}
}

type startSessionRequest struct {
	ProjectID     uuid.UUID   `json:"project_id"`
	SubProjectIDs []uuid.UUID `json:"subproject_ids"`
	StartTime     *time.Time  `json:"start_time"`
	Note          string      `json:"note"`
}

type trackSessionRequest struct {
	ProjectID     uuid.UUID   `json:"project_id"`
	SubProjectIDs []uuid.UUID `json:"subproject_ids"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	Note          string      `json:"note"`
}

type stopSessionRequest struct {
	EndTime *time.Time `json:"end_time"`
	Note    *string    `json:"note"`
}

type restartSessionRequest struct {
	StartTime *time.Time `json:"start_time"`
}

type sessionSubProjectsRequest struct {
	Add    []uuid.UUID `json:"add"`
	Remove []uuid.UUID `json:"remove"`
	Clear  bool        `json:"clear"`
}

func (r trackSessionRequest) input(owner uuid.UUID) domainagg.TrackSessionInput {
	return domainagg.TrackSessionInput{
		OwnerUserID:   owner,
		ProjectID:     r.ProjectID,
		SubProjectIDs: r.SubProjectIDs,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Note:          r.Note,
	}
}

// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	in := domainagg.StartSessionInput{
		OwnerUserID:   ownerID(c),
		ProjectID:     req.ProjectID,
		SubProjectIDs: req.SubProjectIDs,
		Note:          req.Note,
	}
	if req.StartTime != nil {
		in.StartTime = *req.StartTime
	}
	out, err := h.tracking.StartSession(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// POST /api/sessions/track
func (h *SessionHandler) Track(c *gin.Context) {
	var req trackSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.tracking.TrackSession(c.Request.Context(), req.input(ownerID(c)))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	var f repos.SessionFilter
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	f.ProjectID = projectID
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	f.Active = active
	after, ok := queryTime(c, "end_after")
	if !ok {
		return
	}
	before, ok := queryTime(c, "end_before")
	if !ok {
		return
	}
	if !after.IsZero() {
		f.EndAfter = &after
	}
	if !before.IsZero() {
		f.EndBefore = &before
	}
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	rows, err := h.tracking.ListSessions(c.Request.Context(), ownerID(c), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": rows})
}

// GET /api/sessions/active
func (h *SessionHandler) Active(c *gin.Context) {
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	rows, err := h.tracking.ActiveSessions(c.Request.Context(), ownerID(c), projectID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"active": len(rows), "sessions": rows})
}

// POST /api/sessions/:id/restart
func (h *SessionHandler) Restart(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	var req restartSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	in := domainagg.RestartSessionInput{OwnerUserID: ownerID(c), SessionID: id}
	if req.StartTime != nil {
		in.StartTime = *req.StartTime
	}
	out, err := h.tracking.RestartSession(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/totals
func (h *SessionHandler) Totals(c *gin.Context) {
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	start, ok := queryTime(c, "start")
	if !ok {
		return
	}
	end, ok := queryTime(c, "end")
	if !ok {
		return
	}
	q := services.TallyQuery{ProjectID: projectID}
	if !start.IsZero() {
		q.Start = &start
	}
	if !end.IsZero() {
		q.End = &end
	}
	out, err := h.tracking.Tally(c.Request.Context(), ownerID(c), q)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/sessions/:id/stop
func (h *SessionHandler) Stop(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	var req stopSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	in := domainagg.FinalizeSessionInput{OwnerUserID: ownerID(c), SessionID: id, Note: req.Note}
	if req.EndTime != nil {
		in.EndTime = *req.EndTime
	}
	out, err := h.tracking.FinalizeSession(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /api/sessions/:id
func (h *SessionHandler) Replace(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	var req trackSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	owner := ownerID(c)
	out, err := h.tracking.ReplaceSession(c.Request.Context(), domainagg.ReplaceSessionInput{
		OwnerUserID: owner,
		SessionID:   id,
		Replacement: req.input(owner),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /api/sessions/:id/subprojects
func (h *SessionHandler) SetSubProjects(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	var req sessionSubProjectsRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.tracking.SetSessionSubProjects(c.Request.Context(), domainagg.SetSessionSubProjectsInput{
		OwnerUserID: ownerID(c),
		SessionID:   id,
		Add:         req.Add,
		Remove:      req.Remove,
		Clear:       req.Clear,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	out, err := h.tracking.DeleteSession(c.Request.Context(), domainagg.DeleteSessionInput{OwnerUserID: ownerID(c), SessionID: id})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
