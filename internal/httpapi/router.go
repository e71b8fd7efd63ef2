package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ak91singh/Rizz-academy/internal/metrics"
)

type RouterOptions struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics. The route is omitted when nil.
	Gatherer prometheus.Gatherer
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(withRequestLogging(logger))
	engine.Use(withMetrics(opts.Metrics))
	engine.Use(cors.New(corsConfig()))

	engine.GET("/docs", h.swaggerUI)
	engine.GET("/docs/openapi.json", h.swaggerSpec)
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.GET("/", h.root)
	api.GET("/health", h.health)

	api.POST("/auth/session", h.exchangeSession)
	api.POST("/auth/logout", h.logout)
	api.GET("/quiz/questions", h.quizQuestions)
	api.GET("/foundation/prompts", h.journalPrompts)
	api.GET("/combat/scenarios", h.scenarios)

	authed := api.Group("", h.requireAuth)
	authed.GET("/auth/me", h.me)
	authed.POST("/quiz/submit", h.submitQuiz)
	authed.GET("/quiz/result", h.quizResult)
	authed.GET("/user/progress", h.progress)
	authed.POST("/user/progress/update", h.updateProgress)
	authed.GET("/user/achievements", h.achievements)
	authed.GET("/foundation/entries", h.journalEntries)
	authed.POST("/foundation/entries", h.createJournalEntry)
	authed.POST("/combat/chat", h.chat)
	authed.GET("/combat/history/:session_id", h.chatHistory)
	authed.POST("/combat/new-session", h.newChatSession)

	return engine
}

// corsConfig echoes any origin so credentialed browser requests work.
func corsConfig() cors.Config {
	return cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
}

func withRequestLogging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.RequestURI()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start).Truncate(time.Millisecond)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func withMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
