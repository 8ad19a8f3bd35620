package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pmaxhogan/trello-to-prometheus/internal/logger"
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
	"golang.org/x/time/rate"
)

const (
	// RequestsPerWindow limite do Trello por token (100 requisições a cada 10s)
	RequestsPerWindow = 100

	// RateWindow janela do limite do Trello
	RateWindow = 10 * time.Second

	// DefaultTimeout timeout padrão para requisições
	DefaultTimeout = 30 * time.Second

	// maxErrorBody limita quanto do corpo de erro vai para a mensagem
	maxErrorBody = 512
)

// Nomes dos endpoints usados nas métricas do próprio exporter
const (
	EndpointBoard   = "board"
	EndpointLists   = "lists"
	EndpointLabels  = "labels"
	EndpointMembers = "members"
	EndpointCards   = "cards"
	EndpointMe      = "me"
)

// UpstreamRecorder registra o resultado de cada chamada ao Trello
type UpstreamRecorder interface {
	IncUpstreamRequest(endpoint string, err error)
}

// Client é o cliente HTTP para a API REST do Trello
type Client struct {
	baseURL    string
	key        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	recorder   UpstreamRecorder
}

// NewClient cria um novo cliente Trello
func NewClient(baseURL, key, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(RateWindow/RequestsPerWindow), 10),
	}
}

// WithRecorder associa um registrador de chamadas ao cliente
func (c *Client) WithRecorder(r UpstreamRecorder) *Client {
	c.recorder = r
	return c
}

// WithHTTPClient troca o http.Client usado nas requisições
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// GetBoard busca nome e id do quadro
func (c *Client) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	var board model.Board
	query := url.Values{"fields": {"name"}}
	if err := c.get(ctx, EndpointBoard, "/boards/"+url.PathEscape(boardID), query, &board); err != nil {
		return nil, fmt.Errorf("buscar quadro: %w", err)
	}
	return &board, nil
}

// GetLists busca as listas abertas do quadro
func (c *Client) GetLists(ctx context.Context, boardID string) ([]model.List, error) {
	var lists []model.List
	query := url.Values{"fields": {"name,closed"}}
	if err := c.get(ctx, EndpointLists, "/boards/"+url.PathEscape(boardID)+"/lists", query, &lists); err != nil {
		return nil, fmt.Errorf("buscar listas: %w", err)
	}
	return lists, nil
}

// GetLabels busca as etiquetas do quadro
func (c *Client) GetLabels(ctx context.Context, boardID string) ([]model.Label, error) {
	var labels []model.Label
	query := url.Values{"fields": {"name,color"}, "limit": {"1000"}}
	if err := c.get(ctx, EndpointLabels, "/boards/"+url.PathEscape(boardID)+"/labels", query, &labels); err != nil {
		return nil, fmt.Errorf("buscar etiquetas: %w", err)
	}
	return labels, nil
}

// GetMembers busca os membros do quadro
func (c *Client) GetMembers(ctx context.Context, boardID string) ([]model.Member, error) {
	var members []model.Member
	query := url.Values{"fields": {"fullName,username"}}
	if err := c.get(ctx, EndpointMembers, "/boards/"+url.PathEscape(boardID)+"/members", query, &members); err != nil {
		return nil, fmt.Errorf("buscar membros: %w", err)
	}
	return members, nil
}

// GetCards busca os cartões do quadro com os itens de campos personalizados
func (c *Client) GetCards(ctx context.Context, boardID string) ([]model.Card, error) {
	var cards []model.Card
	query := url.Values{
		"fields":           {"name,idList,idLabels,idMembers,closed,cardRole"},
		"customFieldItems": {"true"},
	}
	if err := c.get(ctx, EndpointCards, "/boards/"+url.PathEscape(boardID)+"/cards", query, &cards); err != nil {
		return nil, fmt.Errorf("buscar cartões: %w", err)
	}
	return cards, nil
}

// ValidateToken valida a chave e o token fazendo uma requisição simples
func (c *Client) ValidateToken(ctx context.Context) error {
	var resp model.MemberResponse
	query := url.Values{"fields": {"username"}}
	if err := c.get(ctx, EndpointMe, "/members/me", query, &resp); err != nil {
		return fmt.Errorf("validar token: %w", err)
	}
	return nil
}

// get executa um GET autenticado e registra o resultado
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, result interface{}) error {
	err := c.doGenericRequest(ctx, path, query, result)
	if c.recorder != nil {
		c.recorder.IncUpstreamRequest(endpoint, err)
	}
	switch {
	case errors.Is(err, context.Canceled):
		// Outra chamada do mesmo scrape já falhou
		logger.Get(ctx).Debug().
			Str("endpoint", endpoint).
			Err(err).
			Msg("Chamada ao Trello cancelada")
	case err != nil:
		logger.Get(ctx).Warn().
			Str("endpoint", endpoint).
			Err(err).
			Msg("Falha na chamada ao Trello")
	}
	return err
}

// doGenericRequest executa uma requisição HTTP para a API do Trello.
// Não há retry: qualquer falha é devolvida para quem chamou.
func (c *Client) doGenericRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}
		// Wait falha antes do prazo quando a espera não caberia nele
		return model.ErrTimeout
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.key)
	query.Set("token", c.token)
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}
		if isTimeout(err) {
			return model.ErrTimeout
		}
		return fmt.Errorf("executar request: %w", err)
	}
	defer resp.Body.Close()

	logger.Get(ctx).Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Resposta do Trello")

	// Tratamento de erros HTTP
	switch resp.StatusCode {
	case http.StatusOK:
		// OK, continua
	case http.StatusTooManyRequests:
		return model.ErrRateLimited
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Parse da resposta
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}

	return nil
}

// contextError separa o prazo estourado do cancelamento feito por outra chamada do grupo
func contextError(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return model.ErrTimeout
	case ctx.Err() != nil:
		return fmt.Errorf("request cancelado: %w", ctx.Err())
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
