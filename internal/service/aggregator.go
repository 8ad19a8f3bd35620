package service

import (
	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
)

// Nomes das famílias, na ordem em que são emitidas
const (
	FamilyBoards         = "boards_total"
	FamilyListsPerBoard  = "lists_per_board"
	FamilyCardsInList    = "cards_in_list_total"
	FamilyCardsPriority  = "cards_by_priority_total"
	FamilyCardsTime      = "cards_by_time_total"
	FamilyTimeInList     = "time_in_list_total"
	FamilyLabeledCards   = "labeled_cards_on_board"
	FamilyCardsPerMember = "cards_per_board_member"
)

const unlabeled = "unlabeled"

// FilterStats resume o que a etapa de filtragem descartou
type FilterStats struct {
	Lists         int
	IgnoredLists  int
	Cards         int
	NoList        int
	IgnoredList   int
	ExcludedLabel int
	Separator     int
	Archived      int
	Active        int
}

// Aggregator calcula as famílias de métricas de um quadro
type Aggregator struct {
	rules *Rules
}

// NewAggregator cria um agregador com as regras fornecidas
func NewAggregator(rules *Rules) *Aggregator {
	return &Aggregator{rules: rules}
}

type activeCard struct {
	card model.Card
	res  Resolution
}

// Aggregate calcula as famílias de métricas a partir das coleções do quadro
func (a *Aggregator) Aggregate(board model.Board, lists []model.List, labels []model.Label, members []model.Member, cards []model.Card) *model.FamilySet {
	families, _ := a.AggregateWithStats(board, lists, labels, members, cards)
	return families
}

// AggregateSnapshot é um atalho para Aggregate com um BoardSnapshot
func (a *Aggregator) AggregateSnapshot(s *model.BoardSnapshot) (*model.FamilySet, FilterStats) {
	return a.AggregateWithStats(s.Board, s.Lists, s.Labels, s.Members, s.Cards)
}

// AggregateWithStats faz o mesmo que Aggregate e também retorna as contagens da filtragem
func (a *Aggregator) AggregateWithStats(board model.Board, lists []model.List, labels []model.Label, members []model.Member, cards []model.Card) (*model.FamilySet, FilterStats) {
	stats := FilterStats{Lists: len(lists), Cards: len(cards)}

	// 1. Filtragem de listas
	keptLists := make([]model.List, 0, len(lists))
	for _, l := range lists {
		if a.rules.IsIgnoredList(l.ID) {
			stats.IgnoredLists++
			continue
		}
		keptLists = append(keptLists, l)
	}

	// 2. Filtragem de cartões e resolução dos campos personalizados
	active := make([]activeCard, 0, len(cards))
	for _, c := range cards {
		switch {
		case c.IDList == "":
			stats.NoList++
			continue
		case a.rules.IsIgnoredList(c.IDList):
			stats.IgnoredList++
			continue
		case a.hasExcludedLabel(c):
			stats.ExcludedLabel++
			continue
		case c.CardRole == model.CardRoleSeparator:
			stats.Separator++
			continue
		}

		if c.Closed {
			stats.Archived++
			continue
		}
		active = append(active, activeCard{card: c, res: a.rules.Resolve(c.CustomFieldItems)})
	}
	stats.Active = len(active)

	// 3. Agrupamentos
	boardName := boardDisplayName(board)
	boardLabel := model.LabelPair{Name: "board", Value: boardName}

	families := model.NewFamilySet()
	families.Put(a.boards())
	families.Put(a.listsPerBoard(boardLabel, keptLists))
	families.Put(a.cardsInList(boardLabel, keptLists, active))
	families.Put(a.cardsByPriority(boardLabel, active))
	families.Put(a.cardsByTime(boardLabel, active))
	families.Put(a.timeInList(boardLabel, keptLists, active))
	families.Put(a.labeledCards(boardLabel, labels, active))
	families.Put(a.cardsPerMember(boardLabel, members, active))

	return families, stats
}

func (a *Aggregator) hasExcludedLabel(c model.Card) bool {
	for _, id := range c.IDLabels {
		if a.rules.IsExcludedLabel(id) {
			return true
		}
	}
	return false
}

func (a *Aggregator) boards() *model.MetricFamily {
	f := model.NewMetricFamily(FamilyBoards, "Number of boards exported")
	f.Add(1)
	return f
}

func (a *Aggregator) listsPerBoard(board model.LabelPair, lists []model.List) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyListsPerBoard, "Number of lists on the board")
	f.Add(float64(len(lists)), board)
	return f
}

func (a *Aggregator) cardsInList(board model.LabelPair, lists []model.List, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyCardsInList, "Number of open cards in each list")

	counts := make(map[string]int)
	for _, ac := range active {
		counts[ac.card.IDList]++
	}

	// Toda lista mantida aparece, mesmo com contagem zero
	for _, l := range lists {
		f.Add(float64(counts[l.ID]), board, model.LabelPair{Name: "list", Value: listDisplayName(l)})
	}
	return f
}

func (a *Aggregator) cardsByPriority(board model.LabelPair, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyCardsPriority, "Number of open cards per priority, excluding done lists")

	counts := make(map[string]int)
	for _, ac := range active {
		if !ac.res.HasPriority || a.rules.IsTerminalList(ac.card.IDList) {
			continue
		}
		counts[ac.res.Priority]++
	}

	for _, p := range a.rules.Priorities() {
		f.Add(float64(counts[p]), board, model.LabelPair{Name: "priority", Value: p})
	}
	return f
}

// cardsByTime não exclui listas terminais, ao contrário de cardsByPriority.
func (a *Aggregator) cardsByTime(board model.LabelPair, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyCardsTime, "Number of open cards per time estimate range")

	counts := make(map[string]int)
	for _, ac := range active {
		if !ac.res.HasTime {
			continue
		}
		counts[ac.res.Time.Label]++
	}

	for _, t := range a.rules.TimeRanges() {
		f.Add(float64(counts[t]), board, model.LabelPair{Name: "time", Value: t})
	}
	return f
}

func (a *Aggregator) timeInList(board model.LabelPair, lists []model.List, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyTimeInList, "Estimated seconds of work in each list")

	sums := make(map[string]float64)
	for _, ac := range active {
		if ac.res.HasTime {
			sums[ac.card.IDList] += ac.res.Time.Seconds
		}
	}

	for _, l := range lists {
		f.Add(sums[l.ID], board, model.LabelPair{Name: "list", Value: listDisplayName(l)})
	}
	return f
}

func (a *Aggregator) labeledCards(board model.LabelPair, labels []model.Label, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyLabeledCards, "Number of open cards carrying each label")

	names := make([]string, 0, len(labels))
	nameByID := make(map[string]string, len(labels))
	for _, l := range labels {
		name := labelDisplayName(l)
		nameByID[l.ID] = name
		names = append(names, name)
	}

	counts := countByName(active, nameByID, func(c model.Card) []string { return c.IDLabels })

	// Etiquetas sem cartões não são emitidas
	for _, name := range unique(names) {
		if n := counts[name]; n > 0 {
			f.Add(float64(n), board, model.LabelPair{Name: "label", Value: name})
		}
	}
	return f
}

func (a *Aggregator) cardsPerMember(board model.LabelPair, members []model.Member, active []activeCard) *model.MetricFamily {
	f := model.NewMetricFamily(FamilyCardsPerMember, "Number of open cards assigned to each member")

	names := make([]string, 0, len(members))
	nameByID := make(map[string]string, len(members))
	for _, m := range members {
		name := memberDisplayName(m)
		nameByID[m.ID] = name
		names = append(names, name)
	}

	counts := countByName(active, nameByID, func(c model.Card) []string { return c.IDMembers })

	for _, name := range unique(names) {
		if n := counts[name]; n > 0 {
			f.Add(float64(n), board, model.LabelPair{Name: "member", Value: name})
		}
	}
	return f
}

// countByName conta cada cartão uma vez por nome exibido, mesmo quando
// dois IDs do cartão resolvem para o mesmo nome. IDs fora da coleção são ignorados.
func countByName(active []activeCard, nameByID map[string]string, ids func(model.Card) []string) map[string]int {
	counts := make(map[string]int)
	for _, ac := range active {
		seen := make(map[string]bool)
		for _, id := range ids(ac.card) {
			name, ok := nameByID[id]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			counts[name]++
		}
	}
	return counts
}

// unique remove valores repetidos mantendo a ordem
func unique(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func boardDisplayName(b model.Board) string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

func listDisplayName(l model.List) string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

func labelDisplayName(l model.Label) string {
	if l.Name != "" {
		return l.Name
	}
	if l.Color != "" {
		return l.Color
	}
	return unlabeled
}

func memberDisplayName(m model.Member) string {
	if m.FullName != "" {
		return m.FullName
	}
	if m.Username != "" {
		return m.Username
	}
	return m.ID
}
