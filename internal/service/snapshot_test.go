package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
)

// fakeFetcher devolve coleções fixas e permite forçar erro por endpoint
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	snap  model.BoardSnapshot
}

func newFakeFetcher(snap model.BoardSnapshot) *fakeFetcher {
	return &fakeFetcher{calls: map[string]int{}, fail: map[string]error{}, snap: snap}
}

func (f *fakeFetcher) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeFetcher) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	if err := f.record("board"); err != nil {
		return nil, err
	}
	b := f.snap.Board
	return &b, nil
}

func (f *fakeFetcher) GetLists(ctx context.Context, boardID string) ([]model.List, error) {
	if err := f.record("lists"); err != nil {
		return nil, err
	}
	return f.snap.Lists, nil
}

func (f *fakeFetcher) GetLabels(ctx context.Context, boardID string) ([]model.Label, error) {
	if err := f.record("labels"); err != nil {
		return nil, err
	}
	return f.snap.Labels, nil
}

func (f *fakeFetcher) GetMembers(ctx context.Context, boardID string) ([]model.Member, error) {
	if err := f.record("members"); err != nil {
		return nil, err
	}
	return f.snap.Members, nil
}

func (f *fakeFetcher) GetCards(ctx context.Context, boardID string) ([]model.Card, error) {
	if err := f.record("cards"); err != nil {
		return nil, err
	}
	return f.snap.Cards, nil
}

type fakeScrapeRecorder struct {
	success, failed int
	active          int
}

func (r *fakeScrapeRecorder) ObserveScrape(d time.Duration, success bool) {
	if success {
		r.success++
	} else {
		r.failed++
	}
}

func (r *fakeScrapeRecorder) SetActiveCards(n int) {
	r.active = n
}

func inboxSnapshot() model.BoardSnapshot {
	return model.BoardSnapshot{
		Board: model.Board{ID: "b1", Name: "X"},
		Lists: []model.List{{ID: "l1", Name: "Inbox"}},
		Cards: []model.Card{
			{ID: "c1", IDList: "l1", CustomFieldItems: []model.CustomFieldItem{{IDValue: "tv1"}}},
			{ID: "c2", IDList: "l1"},
		},
	}
}

func TestSnapshotRender(t *testing.T) {
	fetcher := newFakeFetcher(inboxSnapshot())
	recorder := &fakeScrapeRecorder{}
	svc := NewSnapshotService(fetcher, "b1", testAggregator()).WithRecorder(recorder)

	text, err := svc.Render(context.Background())
	if err != nil {
		t.Fatalf("Render falhou: %v", err)
	}

	for _, want := range []string{
		"# TYPE boards_total gauge\n",
		"boards_total{} 1\n",
		`cards_in_list_total{board="X", list="Inbox"} 2` + "\n",
		`time_in_list_total{board="X", list="Inbox"} 180` + "\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("saída não contém %q:\n%s", want, text)
		}
	}

	for _, name := range []string{"board", "lists", "labels", "members", "cards"} {
		if fetcher.calls[name] != 1 {
			t.Errorf("endpoint %s chamado %d vezes, esperado 1", name, fetcher.calls[name])
		}
	}
	if recorder.success != 1 || recorder.failed != 0 || recorder.active != 2 {
		t.Errorf("recorder inesperado: %+v", recorder)
	}
}

func TestSnapshotFailsWhenAnyFetchFails(t *testing.T) {
	for _, endpoint := range []string{"board", "lists", "labels", "members", "cards"} {
		t.Run(endpoint, func(t *testing.T) {
			fetcher := newFakeFetcher(inboxSnapshot())
			fetcher.fail[endpoint] = model.ErrRateLimited
			recorder := &fakeScrapeRecorder{}
			svc := NewSnapshotService(fetcher, "b1", testAggregator()).WithRecorder(recorder)

			text, err := svc.Render(context.Background())
			if !errors.Is(err, model.ErrRateLimited) {
				t.Fatalf("esperado ErrRateLimited, obtido %v", err)
			}
			if text != "" {
				t.Errorf("não deveria haver resultado parcial: %q", text)
			}
			if fetcher.calls[endpoint] != 1 {
				t.Errorf("sem retry: esperado 1 chamada, obtido %d", fetcher.calls[endpoint])
			}
			if recorder.failed != 1 {
				t.Errorf("falha não registrada: %+v", recorder)
			}
		})
	}
}

func TestSnapshotRequiresBoard(t *testing.T) {
	svc := NewSnapshotService(newFakeFetcher(inboxSnapshot()), "", testAggregator())

	if _, err := svc.Fetch(context.Background()); !errors.Is(err, model.ErrMissingBoard) {
		t.Errorf("esperado ErrMissingBoard, obtido %v", err)
	}
}

// blockingFetcher falha no quadro e segura os cartões até o contexto acabar
type blockingFetcher struct {
	*fakeFetcher
	cardsErr chan error
}

func (f *blockingFetcher) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	return nil, model.ErrUnauthorized
}

func (f *blockingFetcher) GetCards(ctx context.Context, boardID string) ([]model.Card, error) {
	select {
	case <-ctx.Done():
		f.cardsErr <- ctx.Err()
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		f.cardsErr <- nil
		return f.snap.Cards, nil
	}
}

func TestSnapshotFailureCancelsPendingFetches(t *testing.T) {
	fetcher := &blockingFetcher{
		fakeFetcher: newFakeFetcher(inboxSnapshot()),
		cardsErr:    make(chan error, 1),
	}
	svc := NewSnapshotService(fetcher, "b1", testAggregator())

	start := time.Now()
	_, err := svc.Render(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("esperado o primeiro erro (ErrUnauthorized), obtido %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("Render demorou %v, a falha deveria cancelar as outras chamadas", elapsed)
	}

	select {
	case cardsErr := <-fetcher.cardsErr:
		if !errors.Is(cardsErr, context.Canceled) {
			t.Errorf("busca de cartões deveria ver context.Canceled, viu %v", cardsErr)
		}
	case <-time.After(time.Second):
		t.Fatal("busca de cartões não terminou")
	}
}
