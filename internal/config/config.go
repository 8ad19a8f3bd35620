package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena as configurações da aplicação
type Config struct {
	TrelloKey      string
	TrelloToken    string
	BoardID        string
	TrelloBaseURL  string
	TokenAPI       string
	Port           string
	GinMode        string
	LogLevel       string
	LogJSON        bool
	RequestTimeout time.Duration
	RulesFile      string
	Rules          BoardRules
}

// ErrMissingToken indica que uma credencial obrigatória não foi configurada
var ErrMissingToken = errors.New("credencial obrigatória não configurada")

const (
	DefaultPort           = "9180"
	DefaultTrelloBaseURL  = "https://api.trello.com/1"
	DefaultRequestTimeout = 30 * time.Second
)

// Load carrega as configurações do ambiente e o arquivo de regras do quadro
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := &Config{
		TrelloKey:     SanitizeCredential(os.Getenv("TRELLO_KEY")),
		TrelloToken:   SanitizeCredential(os.Getenv("TRELLO_TOKEN")),
		BoardID:       SanitizeCredential(os.Getenv("TRELLO_BOARD_ID")),
		TrelloBaseURL: os.Getenv("TRELLO_BASE_URL"),
		TokenAPI:      SanitizeCredential(os.Getenv("TOKEN_API")),
		Port:          os.Getenv("PORT"),
		GinMode:       os.Getenv("GIN_MODE"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		RulesFile:     os.Getenv("BOARD_RULES_FILE"),
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TrelloBaseURL == "" {
		cfg.TrelloBaseURL = DefaultTrelloBaseURL
	}

	cfg.LogJSON = true
	if raw := os.Getenv("LOG_JSON"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("LOG_JSON inválido: %w", err)
		}
		cfg.LogJSON = v
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_TIMEOUT inválido: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT deve ser positivo: %s", raw)
		}
		cfg.RequestTimeout = d
	}

	cfg.Rules = DefaultRules()
	if cfg.RulesFile != "" {
		rules, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}

	return cfg, nil
}

// RequireUpstream valida as credenciais necessárias para consultar o Trello
func (c *Config) RequireUpstream() error {
	required := []struct {
		name  string
		value string
	}{
		{"TRELLO_KEY", c.TrelloKey},
		{"TRELLO_TOKEN", c.TrelloToken},
		{"TRELLO_BOARD_ID", c.BoardID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s: %w", r.name, ErrMissingToken)
		}
		if !ValidateTrelloID(r.value) {
			return fmt.Errorf("%s: %w", r.name, ErrInvalidCredential)
		}
	}
	return nil
}
