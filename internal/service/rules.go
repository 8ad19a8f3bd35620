package service

import (
	"github.com/pmaxhogan/trello-to-prometheus/internal/config"
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
)

// TimeEstimate é a faixa de tempo resolvida de um cartão
type TimeEstimate struct {
	Label   string
	Seconds float64
}

// Rules é a versão indexada das regras do quadro.
// Não é alterada depois de criada e pode ser compartilhada entre requisições.
type Rules struct {
	ignoredLists    map[string]bool
	terminalLists   map[string]bool
	excludedLabels  map[string]bool
	timeByValue     map[string]TimeEstimate
	priorityByValue map[string]string
	timeRanges      []string
	priorities      []string
}

// NewRules indexa as tabelas configuradas
func NewRules(cfg config.BoardRules) *Rules {
	r := &Rules{
		ignoredLists:    toSet(cfg.IgnoredLists),
		terminalLists:   toSet(cfg.TerminalLists),
		excludedLabels:  toSet(cfg.ExcludedLabels),
		timeByValue:     make(map[string]TimeEstimate),
		priorityByValue: make(map[string]string),
	}

	seenTime := make(map[string]bool)
	for _, t := range cfg.TimeEstimates {
		if !seenTime[t.Label] {
			seenTime[t.Label] = true
			r.timeRanges = append(r.timeRanges, t.Label)
		}
		if t.ID != "" {
			r.timeByValue[t.ID] = TimeEstimate{Label: t.Label, Seconds: t.Seconds}
		}
	}

	seenPriority := make(map[string]bool)
	for _, p := range cfg.Priorities {
		if !seenPriority[p.Label] {
			seenPriority[p.Label] = true
			r.priorities = append(r.priorities, p.Label)
		}
		if p.ID != "" {
			r.priorityByValue[p.ID] = p.Label
		}
	}

	return r
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// TimeRanges retorna as faixas de tempo na ordem da tabela
func (r *Rules) TimeRanges() []string {
	return r.timeRanges
}

// Priorities retorna os níveis de prioridade na ordem da tabela
func (r *Rules) Priorities() []string {
	return r.priorities
}

// IsIgnoredList informa se a lista fica fora de todas as métricas
func (r *Rules) IsIgnoredList(id string) bool {
	return r.ignoredLists[id]
}

// IsTerminalList informa se a lista equivale a "concluído"
func (r *Rules) IsTerminalList(id string) bool {
	return r.terminalLists[id]
}

// IsExcludedLabel informa se a etiqueta remove o cartão da agregação
func (r *Rules) IsExcludedLabel(id string) bool {
	return r.excludedLabels[id]
}

// Resolution é o resultado da leitura dos campos personalizados de um cartão
type Resolution struct {
	Time        TimeEstimate
	HasTime     bool
	Priority    string
	HasPriority bool
}

// Resolve percorre os itens na ordem recebida e sobrescreve o valor a cada
// correspondência: o último item reconhecido de cada tabela vence.
// Valores desconhecidos são ignorados.
func (r *Rules) Resolve(items []model.CustomFieldItem) Resolution {
	var res Resolution
	for _, item := range items {
		if t, ok := r.timeByValue[item.IDValue]; ok {
			res.Time = t
			res.HasTime = true
		}
		if p, ok := r.priorityByValue[item.IDValue]; ok {
			res.Priority = p
			res.HasPriority = true
		}
	}
	return res
}
