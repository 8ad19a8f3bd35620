package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pmaxhogan/trello-to-prometheus/internal/metrics"
	"github.com/pmaxhogan/trello-to-prometheus/internal/middleware"
)

// RouterConfig reúne as dependências das rotas
type RouterConfig struct {
	Metrics  *MetricsHandler
	Health   *HealthHandler
	Recorder *metrics.Recorder
	TokenAPI string
}

// NewRouter monta as rotas do exporter
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	// Fora do Recovery, para contar o 500 de um panic recuperado
	if cfg.Recorder != nil {
		r.Use(middleware.MetricsMiddleware(cfg.Recorder))
	}
	r.Use(gin.Recovery())

	// Health check (público)
	if cfg.Health != nil {
		r.GET("/health", cfg.Health.LivenessCheck)
		r.GET("/health/live", cfg.Health.LivenessCheck)
		r.GET("/health/ready", cfg.Health.ReadinessCheck)
	}

	// Métricas do próprio exporter (público)
	if cfg.Recorder != nil {
		r.GET("/metrics/exporter", gin.WrapH(cfg.Recorder.Handler()))
	}

	// Snapshot do quadro (protegido)
	r.GET("/metrics",
		middleware.BearerAuth(middleware.AuthConfig{TokenAPI: cfg.TokenAPI}),
		cfg.Metrics.Serve,
	)

	return r
}
