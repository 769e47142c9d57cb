package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/services"
)

// CatalogHandler serves users plus the owner's tags and contexts.
type CatalogHandler struct {
	tracking services.TrackingService
}

func NewCatalogHandler(tracking services.TrackingService) *CatalogHandler {
	return &CatalogHandler{tracking: tracking}
}

type createUserRequest struct {
	Username string `json:"username"`
	Timezone string `json:"timezone"`
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type createContextRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// POST /users
func (h *CatalogHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.tracking.CreateUser(c.Request.Context(), req.Username, req.Timezone)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// POST /api/tags
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req createTagRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.tracking.CreateTag(c.Request.Context(), ownerID(c), req.Name, req.Color)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tag": tag})
}

// GET /api/tags
func (h *CatalogHandler) ListTags(c *gin.Context) {
	rows, err := h.tracking.ListTags(c.Request.Context(), ownerID(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tags": rows})
}

// POST /api/contexts
func (h *CatalogHandler) CreateContext(c *gin.Context) {
	var req createContextRequest
	if !bindJSON(c, &req) {
		return
	}
	cx, err := h.tracking.CreateContext(c.Request.Context(), ownerID(c), req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"context": cx})
}

// GET /api/contexts
func (h *CatalogHandler) ListContexts(c *gin.Context) {
	rows, err := h.tracking.ListContexts(c.Request.Context(), ownerID(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contexts": rows})
}
