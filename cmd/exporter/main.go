package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/pmaxhogan/trello-to-prometheus/internal/client"
	"github.com/pmaxhogan/trello-to-prometheus/internal/config"
	"github.com/pmaxhogan/trello-to-prometheus/internal/handler"
	"github.com/pmaxhogan/trello-to-prometheus/internal/logger"
	"github.com/pmaxhogan/trello-to-prometheus/internal/metrics"
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
	"github.com/pmaxhogan/trello-to-prometheus/internal/service"
)

const Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

var CLI struct {
	Serve struct{} `cmd:"" default:"1" help:"Inicia o servidor HTTP com o endpoint /metrics"`

	Render struct {
		Input string `short:"i" help:"Arquivo JSON com um snapshot do quadro (não consulta o Trello)"`
	} `cmd:"" help:"Gera o snapshot uma vez e imprime na saída padrão"`

	Version kong.VersionFlag `help:"Mostra a versão e sai"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("trello-exporter"),
		kong.Description("Exporta o estado de um quadro do Trello no formato do Prometheus."),
		kong.Vars{"version": Version},
	)

	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado; no render a saída padrão fica só com as métricas
	if kctx.Command() == "render" {
		logger.InitWithWriter(cfg.LogLevel, cfg.LogJSON, os.Stderr)
	} else {
		logger.Init(cfg.LogLevel, cfg.LogJSON)
	}
	log := logger.Global()

	switch kctx.Command() {
	case "render":
		if err := runRender(cfg, CLI.Render.Input); err != nil {
			log.Fatal().Err(err).Msg("Erro ao gerar snapshot")
		}
	default:
		if err := runServe(cfg); err != nil {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		}
	}
}

func runServe(cfg *config.Config) error {
	if err := cfg.RequireUpstream(); err != nil {
		return err
	}

	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("board_id", cfg.BoardID).
		Str("log_level", cfg.LogLevel).
		Bool("auth", cfg.TokenAPI != "").
		Str("rules_file", cfg.RulesFile).
		Msg("Trello exporter iniciando")

	if cfg.RulesFile == "" {
		log.Warn().Msg("BOARD_RULES_FILE não configurado, usando faixas e prioridades padrão sem IDs")
	}

	// Inicializa dependências
	recorder := metrics.NewRecorder(nil)
	trelloClient := client.NewClient(cfg.TrelloBaseURL, cfg.TrelloKey, cfg.TrelloToken).WithRecorder(recorder)
	aggregator := service.NewAggregator(service.NewRules(cfg.Rules))
	snapshotService := service.NewSnapshotService(trelloClient, cfg.BoardID, aggregator).WithRecorder(recorder)

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.RouterConfig{
		Metrics:  handler.NewMetricsHandler(snapshotService, cfg.RequestTimeout),
		Health:   handler.NewHealthHandler(trelloClient, recorder, Version),
		Recorder: recorder,
		TokenAPI: cfg.TokenAPI,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, srv)
}

// serve atende até ctx terminar e então encerra o servidor aguardando as requisições em andamento
func serve(ctx context.Context, srv *http.Server) error {
	log := logger.Global()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Encerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runRender(cfg *config.Config, input string) error {
	aggregator := service.NewAggregator(service.NewRules(cfg.Rules))
	ctx := context.Background()

	if input != "" {
		snap, err := readSnapshot(input)
		if err != nil {
			return err
		}
		svc := service.NewSnapshotService(nil, "", aggregator)
		text, _ := svc.RenderSnapshot(ctx, snap)
		_, err = fmt.Fprint(os.Stdout, text)
		return err
	}

	if err := cfg.RequireUpstream(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	trelloClient := client.NewClient(cfg.TrelloBaseURL, cfg.TrelloKey, cfg.TrelloToken)
	text, err := service.NewSnapshotService(trelloClient, cfg.BoardID, aggregator).Render(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, text)
	return err
}

func readSnapshot(path string) (*model.BoardSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir snapshot: %w", err)
	}
	defer f.Close()

	var snap model.BoardSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decodificar snapshot %s: %w", path, err)
	}
	return &snap, nil
}
