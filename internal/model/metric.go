package model

import "sort"

// LabelPair é um par chave/valor de um sample
type LabelPair struct {
	Name  string
	Value string
}

// Sample é uma medição de uma família: conjunto de labels mais o valor
type Sample struct {
	Labels []LabelPair
	Value  float64
}

// MetricFamily agrupa samples com o mesmo nome e texto de ajuda
type MetricFamily struct {
	Name    string
	Help    string
	Samples []Sample
	index   map[string]int
}

// NewMetricFamily cria uma família vazia
func NewMetricFamily(name, help string) *MetricFamily {
	return &MetricFamily{
		Name:  name,
		Help:  help,
		index: make(map[string]int),
	}
}

// Add acrescenta um sample. Um conjunto de labels já presente na família
// soma o valor ao sample existente, mantendo os conjuntos únicos.
func (f *MetricFamily) Add(value float64, labels ...LabelPair) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	key := labelKey(labels)
	if i, ok := f.index[key]; ok {
		f.Samples[i].Value += value
		return
	}
	f.index[key] = len(f.Samples)
	f.Samples = append(f.Samples, Sample{Labels: labels, Value: value})
}

// labelKey monta uma chave independente da ordem das labels
func labelKey(labels []LabelPair) string {
	sorted := make([]LabelPair, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	key := make([]byte, 0, 64)
	for _, l := range sorted {
		key = append(key, l.Name...)
		key = append(key, 0)
		key = append(key, l.Value...)
		key = append(key, 0)
	}
	return string(key)
}

// FamilySet é um mapeamento nome -> família que preserva a ordem de inserção
type FamilySet struct {
	families []*MetricFamily
	byName   map[string]*MetricFamily
}

// NewFamilySet cria um conjunto vazio
func NewFamilySet() *FamilySet {
	return &FamilySet{byName: make(map[string]*MetricFamily)}
}

// Put registra a família, substituindo uma de mesmo nome sem mudar sua posição
func (s *FamilySet) Put(f *MetricFamily) {
	if existing, ok := s.byName[f.Name]; ok {
		for i := range s.families {
			if s.families[i] == existing {
				s.families[i] = f
			}
		}
	} else {
		s.families = append(s.families, f)
	}
	s.byName[f.Name] = f
}

// Get retorna a família pelo nome
func (s *FamilySet) Get(name string) (*MetricFamily, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// All retorna as famílias na ordem de inserção
func (s *FamilySet) All() []*MetricFamily {
	return s.families
}

// Len retorna o número de famílias
func (s *FamilySet) Len() int {
	return len(s.families)
}
