package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/autumn-backend/internal/domain/aggregates"
	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

type SubProjectHandler struct {
	tracking services.TrackingService
	audit    services.AuditService
}

func NewSubProjectHandler(tracking services.TrackingService, audit services.AuditService) *SubProjectHandler {
	return &SubProjectHandler{tracking: tracking, audit: audit}
}

type updateSubProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// PATCH /api/subprojects/:id
func (h *SubProjectHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_subproject_id")
	if !ok {
		return
	}
	var req updateSubProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.tracking.UpdateSubProject(c.Request.Context(), domainagg.UpdateSubProjectInput{
		OwnerUserID:  ownerID(c),
		SubProjectID: id,
		Name:         req.Name,
		Description:  req.Description,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"subproject": sp})
}

// DELETE /api/subprojects/:id
func (h *SubProjectHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_subproject_id")
	if !ok {
		return
	}
	if err := h.tracking.DeleteSubProject(c.Request.Context(), ownerID(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/subprojects/:id/audit
func (h *SubProjectHandler) Audit(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_subproject_id")
	if !ok {
		return
	}
	res, err := h.audit.AuditSubProject(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": auditView(res)})
}
