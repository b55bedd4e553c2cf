// Package enrich valida o consolidado do step 1 e o cruza (left join) com
// o cadastro de operadoras ativas.
package enrich

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jesseh78/intuitivecare-test/internal/cnpj"
	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/registry"
	"github.com/Jesseh78/intuitivecare-test/internal/table"
)

// Strategy define o destino de linhas com CNPJ de dígito verificador
// inválido: descartar antes do join ou manter com a marcação CNPJ_VALIDO.
type Strategy string

const (
	StrategyDrop     Strategy = "drop"
	StrategyKeepMark Strategy = "keep_mark"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDrop, StrategyKeepMark:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("enrich: estratégia deve ser %q ou %q, veio %q", StrategyDrop, StrategyKeepMark, s)
	}
}

// Record é uma linha consolidada depois do join com o cadastro. Os campos
// do cadastro ficam vazios quando não há correspondência.
type Record struct {
	CNPJ        string
	RazaoSocial string
	Trimestre   int
	Ano         int
	Valor       float64
	RegistroANS string
	Modalidade  string
	UF          string
	Matched     bool
	CNPJValido  bool
}

type Result struct {
	Records    []Record
	JoinMisses []Record
}

// LoadConsolidated lê o artefato do step 1 validando o contrato de
// colunas. Linhas com ano, trimestre ou valor não numéricos são puladas.
func LoadConsolidated(path string) ([]table.Record, error) {
	header, rows, err := data.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := data.RequireColumns(path, header, []string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas"})
	if err != nil {
		return nil, err
	}

	var out []table.Record
	for _, row := range rows {
		get := func(c string) string {
			i := idx[c]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		tri, err1 := strconv.Atoi(strings.TrimSpace(get("Trimestre")))
		ano, err2 := strconv.Atoi(strings.TrimSpace(get("Ano")))
		valor, err3 := strconv.ParseFloat(strings.TrimSpace(get("ValorDespesas")), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out = append(out, table.Record{
			CNPJ:        get("CNPJ"),
			RazaoSocial: get("RazaoSocial"),
			Trimestre:   tri,
			Ano:         ano,
			Valor:       valor,
			Fonte:       path,
		})
	}
	return out, nil
}

// Enrich normaliza, valida e junta o consolidado com o cadastro já
// deduplicado. Linhas sem par no cadastro continuam na saída principal e
// são copiadas para JoinMisses para auditoria.
func Enrich(records []table.Record, cadastro []registry.Entry, strategy Strategy) (Result, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return Result{}, err
	}

	byCNPJ := make(map[string]registry.Entry, len(cadastro))
	for _, e := range cadastro {
		byCNPJ[e.CNPJ] = e
	}

	var res Result
	for _, r := range records {
		num := cnpj.NormalizePad(r.CNPJ)
		if len(num) != 14 {
			continue
		}
		nome := strings.TrimSpace(r.RazaoSocial)
		if strings.EqualFold(nome, "nan") || nome == "None" {
			nome = ""
		}
		if r.Valor <= 0 {
			continue
		}
		valido := cnpj.Valid(num)
		if strategy == StrategyDrop && !valido {
			continue
		}

		rec := Record{
			CNPJ:        num,
			RazaoSocial: nome,
			Trimestre:   r.Trimestre,
			Ano:         r.Ano,
			Valor:       r.Valor,
			CNPJValido:  valido,
		}
		if e, ok := byCNPJ[num]; ok {
			rec.RegistroANS = e.RegistroANS
			rec.Modalidade = e.Modalidade
			rec.UF = e.UF
			rec.Matched = true
		} else {
			res.JoinMisses = append(res.JoinMisses, rec)
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// EnrichedHeader é o contrato do artefato enriquecido; com keep_mark a
// coluna CNPJ_VALIDO é acrescentada no fim.
var EnrichedHeader = []string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "RegistroANS", "Modalidade", "UF"}

func WriteEnriched(path string, records []Record, strategy Strategy) error {
	header := EnrichedHeader
	if strategy == StrategyKeepMark {
		header = append(append([]string{}, EnrichedHeader...), "CNPJ_VALIDO")
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			r.CNPJ,
			r.RazaoSocial,
			strconv.Itoa(r.Trimestre),
			strconv.Itoa(r.Ano),
			strconv.FormatFloat(r.Valor, 'f', -1, 64),
			r.RegistroANS,
			r.Modalidade,
			r.UF,
		}
		if strategy == StrategyKeepMark {
			row = append(row, strconv.FormatBool(r.CNPJValido))
		}
		rows = append(rows, row)
	}
	return data.WriteCSV(path, header, rows)
}

func WriteJoinMisses(path string, misses []Record) error {
	if len(misses) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(misses))
	for _, r := range misses {
		rows = append(rows, []string{
			r.CNPJ,
			r.RazaoSocial,
			strconv.Itoa(r.Trimestre),
			strconv.Itoa(r.Ano),
			strconv.FormatFloat(r.Valor, 'f', -1, 64),
		})
	}
	return data.WriteCSV(path, []string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas"}, rows)
}
