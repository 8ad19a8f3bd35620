// Package exposition serializa famílias de métricas no formato texto do Prometheus.
package exposition

import (
	"strconv"
	"strings"

	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
)

// ContentType é o content-type do formato texto 0.0.4
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// labelEscaper troca barra invertida, aspas e quebra de linha numa única passada,
// então uma barra já escapada nunca é escapada de novo.
var labelEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
)

// Format converte as famílias para o formato texto, na ordem de inserção.
// Cada família é declarada como gauge.
func Format(families *model.FamilySet) string {
	var output strings.Builder

	for _, family := range families.All() {
		output.WriteString("# TYPE ")
		output.WriteString(family.Name)
		output.WriteString(" gauge\n")

		output.WriteString("# HELP ")
		output.WriteString(family.Name)
		output.WriteByte(' ')
		output.WriteString(family.Help)
		output.WriteByte('\n')

		for _, sample := range family.Samples {
			output.WriteString(family.Name)
			output.WriteByte('{')
			output.WriteString(formatLabels(sample.Labels))
			output.WriteString("} ")
			output.WriteString(FormatValue(sample.Value))
			output.WriteByte('\n')
		}
	}

	return output.String()
}

// formatLabels mantém a ordem em que as labels foram adicionadas
func formatLabels(labels []model.LabelPair) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.Name+`="`+EscapeLabelValue(l.Value)+`"`)
	}
	return strings.Join(parts, ", ")
}

// EscapeLabelValue escapa barra invertida, aspas duplas e quebra de linha
func EscapeLabelValue(value string) string {
	return labelEscaper.Replace(value)
}

// FormatValue usa a menor representação decimal; inteiros saem sem parte fracionária
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
