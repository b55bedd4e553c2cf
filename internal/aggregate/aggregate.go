// Package aggregate fecha o pipeline: agrupa o dataset enriquecido por
// (razão social, UF) e calcula total, média e desvio padrão amostral.
package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/enrich"
)

// Group é o agregado de uma (razão social, UF). DesvioPadrao é amostral
// (divisor n-1) e fica NaN quando o grupo tem uma única linha; no CSV a
// célula sai vazia, nunca zero.
type Group struct {
	RazaoSocial  string
	UF           string
	Total        float64
	Media        float64
	DesvioPadrao float64
	N            int
}

type key struct{ nome, uf string }

// Aggregate é um fold puro sobre o dataset enriquecido; nada é carregado
// entre execuções. A saída vem ordenada por total decrescente, com
// empates na ordem de primeira aparição.
func Aggregate(records []enrich.Record) []Group {
	amounts := map[key][]float64{}
	var order []key
	for _, r := range records {
		k := key{r.RazaoSocial, r.UF}
		if _, ok := amounts[k]; !ok {
			order = append(order, k)
		}
		amounts[k] = append(amounts[k], r.Valor)
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		xs := amounts[k]
		total := 0.0
		for _, v := range xs {
			total += v
		}
		groups = append(groups, Group{
			RazaoSocial:  k.nome,
			UF:           k.uf,
			Total:        total,
			Media:        stat.Mean(xs, nil),
			DesvioPadrao: stat.StdDev(xs, nil),
			N:            len(xs),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })
	return groups
}

// AggregatedHeader é o contrato do artefato agregado.
var AggregatedHeader = []string{"RazaoSocial", "UF", "TotalDespesas", "MediaDespesasTrimestre", "DesvioPadraoDespesas"}

func Write(path string, groups []Group) error {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.RazaoSocial,
			g.UF,
			formatFloat(g.Total),
			formatFloat(g.Media),
			formatFloat(g.DesvioPadrao),
		})
	}
	return data.WriteCSV(path, AggregatedHeader, rows)
}

// LoadEnriched relê o artefato enriquecido para permitir rodar a
// agregação isolada de uma execução anterior.
func LoadEnriched(path string) ([]enrich.Record, error) {
	header, rows, err := data.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := data.RequireColumns(path, header, []string{"RazaoSocial", "UF", "ValorDespesas"})
	if err != nil {
		return nil, err
	}

	var out []enrich.Record
	for _, row := range rows {
		get := func(c string) string {
			i := idx[c]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		valor, err := strconv.ParseFloat(strings.TrimSpace(get("ValorDespesas")), 64)
		if err != nil {
			continue
		}
		out = append(out, enrich.Record{
			RazaoSocial: get("RazaoSocial"),
			UF:          get("UF"),
			Valor:       valor,
		})
	}
	return out, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
