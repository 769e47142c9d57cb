package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

type CommitmentHandler struct {
	commitments services.CommitmentService
}

func NewCommitmentHandler(commitments services.CommitmentService) *CommitmentHandler {
	return &CommitmentHandler{commitments: commitments}
}

type createCommitmentRequest struct {
	ProjectID      uuid.UUID `json:"project_id"`
	Period         string    `json:"period"`
	CommitmentType string    `json:"commitment_type"`
	Target         int       `json:"target"`
	BankingEnabled bool      `json:"banking_enabled"`
	MinBalance     *int      `json:"min_balance"`
	MaxBalance     *int      `json:"max_balance"`
}

// POST /api/commitments
func (h *CommitmentHandler) Create(c *gin.Context) {
	var req createCommitmentRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.commitments.Create(c.Request.Context(), domainagg.CreateCommitmentInput{
		OwnerUserID:    ownerID(c),
		ProjectID:      req.ProjectID,
		Period:         req.Period,
		CommitmentType: req.CommitmentType,
		Target:         req.Target,
		BankingEnabled: req.BankingEnabled,
		MinBalance:     req.MinBalance,
		MaxBalance:     req.MaxBalance,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"commitment": cm})
}

// GET /api/commitments
func (h *CommitmentHandler) List(c *gin.Context) {
	rows, err := h.commitments.List(c.Request.Context(), ownerID(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"commitments": rows})
}

// GET /api/commitments/:id
func (h *CommitmentHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_commitment_id")
	if !ok {
		return
	}
	cm, err := h.commitments.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"commitment": cm})
}

// GET /api/commitments/:id/progress
func (h *CommitmentHandler) Progress(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_commitment_id")
	if !ok {
		return
	}
	now, ok := queryTime(c, "now")
	if !ok {
		return
	}
	p, err := h.commitments.Progress(c.Request.Context(), ownerID(c), id, now)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": p})
}

// GET /api/commitments/:id/streak
func (h *CommitmentHandler) Streak(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_commitment_id")
	if !ok {
		return
	}
	// 0 lets the service pick its default window.
	n, ok := queryInt(c, "periods")
	if !ok {
		return
	}
	s, err := h.commitments.CommitmentStreak(c.Request.Context(), ownerID(c), id, n)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"streak": s})
}

// POST /api/commitments/:id/reconcile
func (h *CommitmentHandler) Reconcile(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_commitment_id")
	if !ok {
		return
	}
	force, ok := queryBool(c, "force")
	if !ok {
		return
	}
	res, err := h.commitments.Reconcile(c.Request.Context(), ownerID(c), id, force != nil && *force)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reconcile": res})
}

// GET /api/streak
func (h *CommitmentHandler) DailyStreak(c *gin.Context) {
	ref, ok := queryDate(c, "date")
	if !ok {
		return
	}
	s, err := h.commitments.DailyStreak(c.Request.Context(), ownerID(c), ref)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"streak": s})
}
