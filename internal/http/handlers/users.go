package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/http/response"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	profile, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": profile})
}

// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": profile})
}

// POST /api/users/:id/roles
// body: { "name": "moderator", "scope": "category", "scope_id": "trading" }
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var role domain.Role
	if !bindJSON(c, &role) {
		return
	}
	profile, err := h.users.AssignRole(c.Request.Context(), id, role)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": profile})
}

// POST /api/replies/:id/helpful
func (h *UserHandler) HelpfulVote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.RecordHelpfulVote(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": profile})
}

// POST /api/posts/:id/replies/:replyId/best
func (h *UserHandler) MarkBestAnswer(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replyID, ok := pathID(c, "replyId")
	if !ok {
		return
	}
	profile, err := h.users.MarkBestAnswer(c.Request.Context(), postID, replyID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": profile})
}
