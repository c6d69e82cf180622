package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/forum"
	"github.com/yungbote/tradeguild-backend/internal/http/response"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
)

// ToolsHandler exposes the stateless forum helpers for clients that want to
// check a draft before submitting it.
type ToolsHandler struct{}

func NewToolsHandler() *ToolsHandler { return &ToolsHandler{} }

// POST /api/tools/spam-check
// body: { "content": "..." }
func (h *ToolsHandler) SpamCheck(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &req) {
		return
	}
	response.RespondOK(c, forum.DetectSpam(req.Content))
}

// POST /api/tools/excerpt
// body: { "content": "...", "max_length": 150 }
func (h *ToolsHandler) Excerpt(c *gin.Context) {
	var req struct {
		Content   string `json:"content"`
		MaxLength int    `json:"max_length"`
	}
	if !bindJSON(c, &req) {
		return
	}
	response.RespondOK(c, gin.H{"excerpt": forum.GenerateExcerpt(req.Content, req.MaxLength)})
}

// POST /api/tools/validate
func (h *ToolsHandler) Validate(c *gin.Context) {
	var req struct {
		Title       string          `json:"title"`
		Content     string          `json:"content"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory"`
		PostType    domain.PostType `json:"post_type"`
		Tags        []string        `json:"tags"`
		HasImages   bool            `json:"has_images"`
		HasCharts   bool            `json:"has_charts"`
		Payload     json.RawMessage `json:"payload"`
	}
	if !bindJSON(c, &req) {
		return
	}
	payload, err := domain.DecodePayload(req.PostType, datatypes.JSON(req.Payload))
	if err != nil {
		response.RespondServiceError(c, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidArgument, err))
		return
	}
	draft := &domain.Post{
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		PostType:    req.PostType,
		Tags:        req.Tags,
		HasImages:   req.HasImages,
		HasCharts:   req.HasCharts,
		Payload:     payload,
	}
	response.RespondOK(c, forum.ValidatePost(draft))
}

// POST /api/tools/format-trade
func (h *ToolsHandler) FormatTrade(c *gin.Context) {
	var td domain.TradingData
	if !bindJSON(c, &td) {
		return
	}
	response.RespondOK(c, forum.FormatTradingData(&td))
}
