package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/forum"
	"github.com/yungbote/tradeguild-backend/internal/http/response"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type PostHandler struct {
	forum services.ForumService
}

func NewPostHandler(forum services.ForumService) *PostHandler {
	return &PostHandler{forum: forum}
}

type listPostsQuery struct {
	forum.Filters
	From   *time.Time `form:"from"`
	To     *time.Time `form:"to"`
	Sort   string     `form:"sort"`
	Query  string     `form:"q"`
	Limit  int        `form:"limit"`
	Offset int        `form:"offset"`
}

// GET /api/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	var q listPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	sortBy, err := forum.ParseSortBy(q.Sort)
	if err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err))
		return
	}
	filters := q.Filters
	filters.Tags = splitTags(filters.Tags)
	if q.From != nil || q.To != nil {
		filters.DateRange = &forum.DateRange{Start: q.From, End: q.To}
	}

	page, err := h.forum.ListPosts(c.Request.Context(), services.ListPostsInput{
		Filters: filters,
		Sort:    sortBy,
		Query:   q.Query,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/posts/top?category=&limit=
func (h *PostHandler) TopPosts(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.forum.TopPosts(c.Request.Context(), c.Query("category"), n)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

type createPostRequest struct {
	services.CreatePostInput
	Payload json.RawMessage `json:"payload"`
}

// POST /api/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}
	in := req.CreatePostInput
	payload, err := domain.DecodePayload(in.PostType, datatypes.JSON(req.Payload))
	if err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err))
		return
	}
	in.Payload = payload

	res, err := h.forum.CreatePost(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	thread, err := h.forum.GetPost(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, thread)
}

// PATCH /api/posts/:id
func (h *PostHandler) EditPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in services.EditPostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := h.forum.EditPost(c.Request.Context(), id, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// DELETE /api/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.forum.DeletePost(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/posts/:id/replies
// body: { "content": "...", "parent_id": "..." }
func (h *PostHandler) AddReply(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content  string     `json:"content"`
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.forum.AddReply(c.Request.Context(), id, req.ParentID, req.Content)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"reply": reply})
}

// POST /api/posts/:id/like
func (h *PostHandler) LikePost(c *gin.Context) {
	h.counter(c, h.forum.LikePost)
}

// POST /api/posts/:id/share
func (h *PostHandler) SharePost(c *gin.Context) {
	h.counter(c, h.forum.SharePost)
}

// POST /api/posts/:id/bookmark
func (h *PostHandler) BookmarkPost(c *gin.Context) {
	h.counter(c, h.forum.BookmarkPost)
}

func (h *PostHandler) counter(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*domain.Post, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// GET /api/categories
func (h *PostHandler) ListCategories(c *gin.Context) {
	cats, err := h.forum.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// splitTags accepts both repeated ?tags= parameters and comma lists.
func splitTags(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
