package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TimeEstimateRule associa um valor de campo personalizado a uma faixa de tempo
type TimeEstimateRule struct {
	ID      string  `yaml:"id"`
	Label   string  `yaml:"label"`
	Seconds float64 `yaml:"seconds"`
}

// PriorityRule associa um valor de campo personalizado a um nível de prioridade
type PriorityRule struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// BoardRules contém as tabelas estáticas usadas na agregação.
// A ordem de TimeEstimates e Priorities define a ordem de saída das métricas.
type BoardRules struct {
	IgnoredLists   []string           `yaml:"ignored_lists"`
	TerminalLists  []string           `yaml:"terminal_lists"`
	ExcludedLabels []string           `yaml:"excluded_labels"`
	TimeEstimates  []TimeEstimateRule `yaml:"time_estimates"`
	Priorities     []PriorityRule     `yaml:"priorities"`
}

// DefaultRules retorna as faixas e prioridades padrão, sem IDs associados
func DefaultRules() BoardRules {
	return BoardRules{
		TimeEstimates: []TimeEstimateRule{
			{Label: "<5 min", Seconds: 180},
			{Label: "5-15 min", Seconds: 600},
			{Label: "15-30 min", Seconds: 1350},
			{Label: "30-60 min", Seconds: 2700},
			{Label: "1-2 h", Seconds: 5400},
			{Label: "2-4 h", Seconds: 10800},
			{Label: ">4 h", Seconds: 21600},
		},
		Priorities: []PriorityRule{
			{Label: "Highest"},
			{Label: "High"},
			{Label: "Medium"},
			{Label: "Low"},
			{Label: "Lowest"},
		},
	}
}

// LoadRules lê e valida o arquivo YAML de regras do quadro
func LoadRules(path string) (BoardRules, error) {
	var rules BoardRules

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("ler arquivo de regras %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("decodificar arquivo de regras %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("arquivo de regras %s: %w", path, err)
	}

	return rules, nil
}

// Validate verifica IDs duplicados, labels vazios e segundos negativos
func (r BoardRules) Validate() error {
	seen := make(map[string]bool)
	for i, t := range r.TimeEstimates {
		if t.Label == "" {
			return fmt.Errorf("time_estimates[%d]: label vazio", i)
		}
		if t.Seconds < 0 {
			return fmt.Errorf("time_estimates[%d]: segundos negativos (%v)", i, t.Seconds)
		}
		if t.ID == "" {
			continue
		}
		if seen[t.ID] {
			return fmt.Errorf("time_estimates[%d]: id duplicado %q", i, t.ID)
		}
		seen[t.ID] = true
	}

	seen = make(map[string]bool)
	for i, p := range r.Priorities {
		if p.Label == "" {
			return fmt.Errorf("priorities[%d]: label vazio", i)
		}
		if p.ID == "" {
			continue
		}
		if seen[p.ID] {
			return fmt.Errorf("priorities[%d]: id duplicado %q", i, p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}
