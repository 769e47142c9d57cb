package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditResultView struct {
	Entity   string    `json:"entity"`
	ID       uuid.UUID `json:"id"`
	Previous float64   `json:"previous"`
	Total    float64   `json:"total"`
	Drift    float64   `json:"drift"`
}

func auditView(r domainagg.AuditResult) auditResultView {
	return auditResultView{
		Entity:   string(r.Entity),
		ID:       r.ID,
		Previous: r.Previous,
		Total:    r.Total,
		Drift:    r.Drift(),
	}
}

func auditViews(rs []domainagg.AuditResult) []auditResultView {
	out := make([]auditResultView, 0, len(rs))
	for _, r := range rs {
		out = append(out, auditView(r))
	}
	return out
}

// POST /api/audit
func (h *AuditHandler) Sweep(c *gin.Context) {
	rep, err := h.audit.Sweep(c.Request.Context(), ownerID(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sweep": rep})
}
