package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tradeguild-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tradeguild-backend/internal/http/middleware"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	PostHandler       *httpH.PostHandler
	UserHandler       *httpH.UserHandler
	ModerationHandler *httpH.ModerationHandler
	CurriculumHandler *httpH.CurriculumHandler
	ToolsHandler      *httpH.ToolsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	api.Use(httpMW.AttachActor())
	{
		// Posts
		if cfg.PostHandler != nil {
			api.GET("/posts", cfg.PostHandler.ListPosts)
			api.POST("/posts", cfg.PostHandler.CreatePost)
			api.GET("/posts/top", cfg.PostHandler.TopPosts)
			api.GET("/posts/:id", cfg.PostHandler.GetPost)
			api.PATCH("/posts/:id", cfg.PostHandler.EditPost)
			api.DELETE("/posts/:id", cfg.PostHandler.DeletePost)
			api.POST("/posts/:id/replies", cfg.PostHandler.AddReply)
			api.POST("/posts/:id/like", cfg.PostHandler.LikePost)
			api.POST("/posts/:id/share", cfg.PostHandler.SharePost)
			api.POST("/posts/:id/bookmark", cfg.PostHandler.BookmarkPost)
			api.GET("/categories", cfg.PostHandler.ListCategories)
		}

		// Users
		if cfg.UserHandler != nil {
			api.POST("/users", cfg.UserHandler.Register)
			api.GET("/users/:id", cfg.UserHandler.GetUser)
			api.POST("/users/:id/roles", cfg.UserHandler.AssignRole)
			api.POST("/replies/:id/helpful", cfg.UserHandler.HelpfulVote)
			api.POST("/posts/:id/replies/:replyId/best", cfg.UserHandler.MarkBestAnswer)
		}

		// Moderation
		if cfg.ModerationHandler != nil {
			api.POST("/posts/:id/flag", cfg.ModerationHandler.FlagPost)
			api.POST("/posts/:id/feature", cfg.ModerationHandler.FeaturePost)
			api.POST("/posts/:id/pin", cfg.ModerationHandler.PinPost)
			api.POST("/posts/:id/lock", cfg.ModerationHandler.LockPost)
			api.POST("/users/:id/ban", cfg.ModerationHandler.BanUser)
			api.GET("/moderation/dashboard", cfg.ModerationHandler.Dashboard)
			api.POST("/moderation/flags/:id/review", cfg.ModerationHandler.ReviewFlag)
		}

		// Curriculum
		if cfg.CurriculumHandler != nil {
			api.GET("/curriculum/pillars", cfg.CurriculumHandler.ListPillars)
			api.GET("/curriculum/:pillar", cfg.CurriculumHandler.GetPillar)
			api.GET("/curriculum/:pillar/progress/:userId", cfg.CurriculumHandler.GetProgress)
			api.POST("/curriculum/:pillar/complete", cfg.CurriculumHandler.CompleteModule)
		}

		// Tools
		if cfg.ToolsHandler != nil {
			api.POST("/tools/spam-check", cfg.ToolsHandler.SpamCheck)
			api.POST("/tools/excerpt", cfg.ToolsHandler.Excerpt)
			api.POST("/tools/validate", cfg.ToolsHandler.Validate)
			api.POST("/tools/format-trade", cfg.ToolsHandler.FormatTrade)
		}
	}

	return r
}
