package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pmaxhogan/trello-to-prometheus/internal/exposition"
	"github.com/pmaxhogan/trello-to-prometheus/internal/logger"
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
	"golang.org/x/sync/errgroup"
)

// BoardFetcher busca as coleções de um quadro no Trello
type BoardFetcher interface {
	GetBoard(ctx context.Context, boardID string) (*model.Board, error)
	GetLists(ctx context.Context, boardID string) ([]model.List, error)
	GetLabels(ctx context.Context, boardID string) ([]model.Label, error)
	GetMembers(ctx context.Context, boardID string) ([]model.Member, error)
	GetCards(ctx context.Context, boardID string) ([]model.Card, error)
}

// ScrapeRecorder registra duração e resultado de cada coleta
type ScrapeRecorder interface {
	ObserveScrape(d time.Duration, success bool)
	SetActiveCards(n int)
}

// SnapshotService orquestra coleta, agregação e formatação de um quadro
type SnapshotService struct {
	fetcher    BoardFetcher
	boardID    string
	aggregator *Aggregator
	recorder   ScrapeRecorder
}

// NewSnapshotService cria um novo serviço de snapshot
func NewSnapshotService(fetcher BoardFetcher, boardID string, aggregator *Aggregator) *SnapshotService {
	return &SnapshotService{
		fetcher:    fetcher,
		boardID:    boardID,
		aggregator: aggregator,
	}
}

// WithRecorder associa um registrador de coletas ao serviço
func (s *SnapshotService) WithRecorder(r ScrapeRecorder) *SnapshotService {
	s.recorder = r
	return s
}

// Fetch busca as cinco coleções em paralelo. Se qualquer chamada falhar,
// as demais são canceladas e nenhum resultado parcial é devolvido.
func (s *SnapshotService) Fetch(ctx context.Context) (*model.BoardSnapshot, error) {
	if s.boardID == "" {
		return nil, model.ErrMissingBoard
	}

	var snap model.BoardSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		board, err := s.fetcher.GetBoard(gctx, s.boardID)
		if err != nil {
			return err
		}
		snap.Board = *board
		return nil
	})
	g.Go(func() error {
		lists, err := s.fetcher.GetLists(gctx, s.boardID)
		snap.Lists = lists
		return err
	})
	g.Go(func() error {
		labels, err := s.fetcher.GetLabels(gctx, s.boardID)
		snap.Labels = labels
		return err
	})
	g.Go(func() error {
		members, err := s.fetcher.GetMembers(gctx, s.boardID)
		snap.Members = members
		return err
	})
	g.Go(func() error {
		cards, err := s.fetcher.GetCards(gctx, s.boardID)
		snap.Cards = cards
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("coletar quadro %s: %w", s.boardID, err)
	}

	logger.Get(ctx).Debug().
		Str("board", snap.Board.Name).
		Int("lists", len(snap.Lists)).
		Int("labels", len(snap.Labels)).
		Int("members", len(snap.Members)).
		Int("cards", len(snap.Cards)).
		Msg("Quadro coletado")

	return &snap, nil
}

// Render coleta o quadro e devolve o texto de exposição
func (s *SnapshotService) Render(ctx context.Context) (string, error) {
	start := time.Now()

	snap, err := s.Fetch(ctx)
	if err != nil {
		s.observe(start, false)
		return "", err
	}

	text, stats := s.RenderSnapshot(ctx, snap)
	s.observe(start, true)
	if s.recorder != nil {
		s.recorder.SetActiveCards(stats.Active)
	}
	return text, nil
}

// RenderSnapshot agrega e formata um snapshot já coletado
func (s *SnapshotService) RenderSnapshot(ctx context.Context, snap *model.BoardSnapshot) (string, FilterStats) {
	families, stats := s.aggregator.AggregateSnapshot(snap)

	logger.Get(ctx).Debug().
		Int("cards", stats.Cards).
		Int("active", stats.Active).
		Int("archived", stats.Archived).
		Int("no_list", stats.NoList).
		Int("ignored_list", stats.IgnoredList).
		Int("excluded_label", stats.ExcludedLabel).
		Int("separator", stats.Separator).
		Int("ignored_lists", stats.IgnoredLists).
		Msg("Filtragem concluída")

	return exposition.Format(families), stats
}

func (s *SnapshotService) observe(start time.Time, success bool) {
	if s.recorder != nil {
		s.recorder.ObserveScrape(time.Since(start), success)
	}
}
