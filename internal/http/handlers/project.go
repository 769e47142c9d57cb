package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

type ProjectHandler struct {
	tracking services.TrackingService
	audit    services.AuditService
}

func NewProjectHandler(tracking services.TrackingService, audit services.AuditService) *ProjectHandler {
	return &ProjectHandler{tracking: tracking, audit: audit}
}

type createProjectRequest struct {
	Name        string      `json:"name"`
	Status      string      `json:"status"`
	Description string      `json:"description"`
	ContextID   *uuid.UUID  `json:"context_id"`
	TagIDs      []uuid.UUID `json:"tag_ids"`
}

type updateProjectRequest struct {
	Name         *string    `json:"name"`
	Status       *string    `json:"status"`
	Description  *string    `json:"description"`
	ContextID    *uuid.UUID `json:"context_id"`
	ClearContext bool       `json:"clear_context"`
}

type mergeProjectsRequest struct {
	ProjectAID uuid.UUID `json:"project_a_id"`
	ProjectBID uuid.UUID `json:"project_b_id"`
	NewName    string    `json:"new_name"`
}

type setTagsRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids"`
}

type createSubProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type mergeSubProjectsRequest struct {
	SubProjectXID uuid.UUID `json:"subproject_x_id"`
	SubProjectYID uuid.UUID `json:"subproject_y_id"`
	NewName       string    `json:"new_name"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.tracking.CreateProject(c.Request.Context(), domainagg.CreateProjectInput{
		OwnerUserID: ownerID(c),
		Name:        req.Name,
		Status:      req.Status,
		Description: req.Description,
		ContextID:   req.ContextID,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	rows, err := h.tracking.ListProjects(c.Request.Context(), ownerID(c), c.Query("status"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": rows})
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	p, err := h.tracking.GetProject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.tracking.UpdateProject(c.Request.Context(), domainagg.UpdateProjectInput{
		OwnerUserID:  ownerID(c),
		ProjectID:    id,
		Name:         req.Name,
		Status:       req.Status,
		Description:  req.Description,
		ContextID:    req.ContextID,
		ClearContext: req.ClearContext,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	if err := h.tracking.DeleteProject(c.Request.Context(), ownerID(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/projects/merge
func (h *ProjectHandler) Merge(c *gin.Context) {
	var req mergeProjectsRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.tracking.MergeProjects(c.Request.Context(), domainagg.MergeProjectsInput{
		OwnerUserID: ownerID(c),
		ProjectAID:  req.ProjectAID,
		ProjectBID:  req.ProjectBID,
		NewName:     req.NewName,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/audit
func (h *ProjectHandler) Audit(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	results, err := h.audit.AuditProject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": auditViews(results)})
}

// PUT /api/projects/:id/tags
func (h *ProjectHandler) SetTags(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req setTagsRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.tracking.SetProjectTags(c.Request.Context(), ownerID(c), id, req.TagIDs)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// POST /api/projects/:id/subprojects
func (h *ProjectHandler) CreateSubProject(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req createSubProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.tracking.CreateSubProject(c.Request.Context(), domainagg.CreateSubProjectInput{
		OwnerUserID:     ownerID(c),
		ParentProjectID: id,
		Name:            req.Name,
		Description:     req.Description,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"subproject": sp})
}

// GET /api/projects/:id/subprojects
func (h *ProjectHandler) ListSubProjects(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	rows, err := h.tracking.ListSubProjects(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"subprojects": rows})
}

// POST /api/projects/:id/subprojects/merge
func (h *ProjectHandler) MergeSubProjects(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req mergeSubProjectsRequest
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.tracking.MergeSubProjects(c.Request.Context(), domainagg.MergeSubProjectsInput{
		OwnerUserID:     ownerID(c),
		ParentProjectID: id,
		SubProjectXID:   req.SubProjectXID,
		SubProjectYID:   req.SubProjectYID,
		NewName:         req.NewName,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"subproject": sp})
}
