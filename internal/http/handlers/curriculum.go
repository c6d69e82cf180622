package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tradeguild-backend/internal/http/response"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type CurriculumHandler struct {
	curriculum services.CurriculumService
}

func NewCurriculumHandler(curriculum services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// GET /api/curriculum/pillars
func (h *CurriculumHandler) ListPillars(c *gin.Context) {
	response.RespondOK(c, gin.H{"pillars": h.curriculum.ListPillars(c.Request.Context())})
}

// GET /api/curriculum/:pillar
func (h *CurriculumHandler) GetPillar(c *gin.Context) {
	p, err := h.curriculum.GetPillar(c.Request.Context(), c.Param("pillar"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pillar": p, "total_xp": p.TotalXP()})
}

// GET /api/curriculum/:pillar/progress/:userId
func (h *CurriculumHandler) GetProgress(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	view, err := h.curriculum.GetProgress(c.Request.Context(), userID, c.Param("pillar"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/curriculum/:pillar/complete
// body: { "module_key": "..." }
func (h *CurriculumHandler) CompleteModule(c *gin.Context) {
	var req struct {
		ModuleKey string `json:"module_key" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.curriculum.CompleteModule(c.Request.Context(), c.Param("pillar"), req.ModuleKey)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transition": t})
}
