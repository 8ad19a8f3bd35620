package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pmaxhogan/trello-to-prometheus/internal/exposition"
	"github.com/pmaxhogan/trello-to-prometheus/internal/logger"
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
)

// Renderer gera o texto de exposição do quadro
type Renderer interface {
	Render(ctx context.Context) (string, error)
}

// MetricsHandler atende o endpoint de scrape do quadro
type MetricsHandler struct {
	renderer Renderer
	timeout  time.Duration
}

// NewMetricsHandler cria um novo handler de métricas.
// timeout limita a coleta no Trello; zero desativa o limite.
func NewMetricsHandler(renderer Renderer, timeout time.Duration) *MetricsHandler {
	return &MetricsHandler{
		renderer: renderer,
		timeout:  timeout,
	}
}

// Serve recalcula o snapshot do quadro a cada requisição
func (h *MetricsHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	text, err := h.renderer.Render(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, exposition.ContentType, []byte(text))
}

// handleError converte erros do Trello em status HTTP
func (h *MetricsHandler) handleError(c *gin.Context, err error) {
	logger.FromGin(c).Error().Err(err).Msg("Erro ao gerar métricas do quadro")

	switch {
	case errors.Is(err, model.ErrRateLimited):
		c.String(http.StatusTooManyRequests, "rate limit excedido na API do Trello\n")
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		c.String(http.StatusGatewayTimeout, "timeout na requisição para o Trello\n")
	case errors.Is(err, model.ErrUnauthorized):
		c.String(http.StatusBadGateway, "credenciais do Trello inválidas, verifique TRELLO_KEY e TRELLO_TOKEN\n")
	case errors.Is(err, model.ErrNotFound):
		c.String(http.StatusBadGateway, "quadro não encontrado, verifique TRELLO_BOARD_ID\n")
	case errors.Is(err, model.ErrMissingBoard):
		c.String(http.StatusInternalServerError, "TRELLO_BOARD_ID não configurado\n")
	default:
		c.String(http.StatusBadGateway, "falha ao consultar o Trello\n")
	}
}
