package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/http/response"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type ModerationHandler struct {
	moderation services.ModerationService
}

func NewModerationHandler(moderation services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

// POST /api/posts/:id/flag
// body: { "reason": "...", "reply_id": "..." }
func (h *ModerationHandler) FlagPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason  string     `json:"reason"`
		ReplyID *uuid.UUID `json:"reply_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.moderation.FlagPost(c.Request.Context(), id, req.ReplyID, req.Reason)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"flag": flag})
}

// POST /api/posts/:id/feature
func (h *ModerationHandler) FeaturePost(c *gin.Context) {
	h.toggle(c, h.moderation.FeaturePost)
}

// POST /api/posts/:id/pin
func (h *ModerationHandler) PinPost(c *gin.Context) {
	h.toggle(c, h.moderation.PinPost)
}

// POST /api/posts/:id/lock
func (h *ModerationHandler) LockPost(c *gin.Context) {
	h.toggle(c, h.moderation.LockPost)
}

// toggle applies a post switch; an empty body turns it on.
func (h *ModerationHandler) toggle(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, on bool) (*domain.Post, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req toggleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	post, err := fn(c.Request.Context(), id, req.value())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// POST /api/users/:id/ban
// body: { "on": false } lifts a ban.
func (h *ModerationHandler) BanUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req toggleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	profile, err := h.moderation.BanUser(c.Request.Context(), id, req.value())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": profile})
}

// POST /api/moderation/flags/:id/review
// body: { "status": "reviewed" | "dismissed" }
func (h *ModerationHandler) ReviewFlag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status domain.FlagStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.moderation.ReviewFlag(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"flag": flag})
}

// GET /api/moderation/dashboard
func (h *ModerationHandler) Dashboard(c *gin.Context) {
	d, err := h.moderation.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, d)
}
