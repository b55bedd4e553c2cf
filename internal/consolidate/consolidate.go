// Package consolidate funde as linhas de todos os trimestres e resolve o
// conflito CNPJ → razão social por voto de maioria. É uma operação sobre o
// dataset inteiro: só roda depois que todos os arquivos foram processados.
package consolidate

import (
	"errors"
	"strconv"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/table"
)

// ErrNoData indica que nenhuma linha de despesa foi extraída; nada é
// persistido.
var ErrNoData = errors.New("consolidate: nenhum dado válido de despesas extraído")

const (
	MotivoValorZeroOuNegativo = "valor_zero_ou_negativo"
	MotivoRazaoDivergente     = "cnpj_com_razao_social_divergente"
)

// Suspect é uma linha desviada do fluxo principal para revisão humana.
// Linhas com razão social divergente continuam também na saída principal
// (com o nome vencedor); linhas de valor não positivo só aparecem aqui.
type Suspect struct {
	table.Record
	Motivo string
}

type Result struct {
	Records  []table.Record
	Suspects []Suspect
}

// Resolve escolhe, por CNPJ, a razão social mais frequente no dataset e a
// aplica a todas as linhas daquele CNPJ. Empates são decididos pela ordem
// de primeira aparição, para a saída ser determinística entre execuções.
func Resolve(records []table.Record, nonPositive []table.Record) (Result, error) {
	if len(records) == 0 {
		return Result{}, ErrNoData
	}

	counts := map[string]map[string]int{}
	firstSeen := map[string]map[string]int{}
	order := 0
	for _, r := range records {
		if counts[r.CNPJ] == nil {
			counts[r.CNPJ] = map[string]int{}
			firstSeen[r.CNPJ] = map[string]int{}
		}
		if _, ok := firstSeen[r.CNPJ][r.RazaoSocial]; !ok {
			firstSeen[r.CNPJ][r.RazaoSocial] = order
			order++
		}
		counts[r.CNPJ][r.RazaoSocial]++
	}

	mode := map[string]string{}
	for id, names := range counts {
		best, bestCount := "", -1
		for name, c := range names {
			if c > bestCount || (c == bestCount && firstSeen[id][name] < firstSeen[id][best]) {
				best, bestCount = name, c
			}
		}
		mode[id] = best
	}

	res := Result{Records: make([]table.Record, 0, len(records))}
	for _, r := range nonPositive {
		res.Suspects = append(res.Suspects, Suspect{Record: r, Motivo: MotivoValorZeroOuNegativo})
	}
	for _, r := range records {
		if win := mode[r.CNPJ]; r.RazaoSocial != win {
			res.Suspects = append(res.Suspects, Suspect{Record: r, Motivo: MotivoRazaoDivergente})
			r.RazaoSocial = win
		}
		res.Records = append(res.Records, r)
	}
	return res, nil
}

// Cabeçalhos dos artefatos do step 1; são contrato com o step 2.
var (
	ConsolidatedHeader = []string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas"}
	suspectsHeader     = []string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "Motivo", "FonteArquivo"}
)

func WriteConsolidated(path string, records []table.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CNPJ,
			r.RazaoSocial,
			strconv.Itoa(r.Trimestre),
			strconv.Itoa(r.Ano),
			strconv.FormatFloat(r.Valor, 'f', -1, 64),
		})
	}
	return data.WriteCSV(path, ConsolidatedHeader, rows)
}

func WriteSuspects(path string, suspects []Suspect) error {
	if len(suspects) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(suspects))
	for _, s := range suspects {
		rows = append(rows, []string{
			s.CNPJ,
			s.RazaoSocial,
			strconv.Itoa(s.Trimestre),
			strconv.Itoa(s.Ano),
			strconv.FormatFloat(s.Valor, 'f', -1, 64),
			s.Motivo,
			s.Fonte,
		})
	}
	return data.WriteCSV(path, suspectsHeader, rows)
}
