// Package export gera as cópias snake_case dos artefatos processados,
// prontas para o COPY do PostgreSQL.
package export

import (
	"path/filepath"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
)

// Run lê os artefatos de processedDir e grava em sqlDir:
//
//	operadoras_ativas.csv       (um CNPJ por linha, derivado do enriquecido)
//	consolidado_enriquecido.csv
//	despesas_agregadas.csv
func Run(processedDir, sqlDir string) error {
	if err := exportEnriched(processedDir, sqlDir); err != nil {
		return err
	}
	return exportAggregated(processedDir, sqlDir)
}

func exportEnriched(processedDir, sqlDir string) error {
	src := filepath.Join(processedDir, "consolidado_enriquecido.csv")
	header, rows, err := data.ReadCSV(src)
	if err != nil {
		return err
	}
	idx, err := data.RequireColumns(src, header, []string{
		"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "RegistroANS", "Modalidade", "UF",
	})
	if err != nil {
		return err
	}

	pick := func(row []string, cols ...string) []string {
		out := make([]string, 0, len(cols))
		for _, c := range cols {
			i := idx[c]
			if i < len(row) {
				out = append(out, row[i])
			} else {
				out = append(out, "")
			}
		}
		return out
	}

	var consolidado [][]string
	var operadoras [][]string
	seen := map[string]bool{}
	for _, row := range rows {
		consolidado = append(consolidado, pick(row,
			"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "RegistroANS", "Modalidade", "UF"))

		id := pick(row, "CNPJ")[0]
		if !seen[id] {
			seen[id] = true
			operadoras = append(operadoras, pick(row, "CNPJ", "RegistroANS", "Modalidade", "UF"))
		}
	}

	if err := data.WriteCSV(filepath.Join(sqlDir, "consolidado_enriquecido.csv"),
		[]string{"cnpj", "razao_social", "trimestre", "ano", "valor_despesas", "registro_ans", "modalidade", "uf"},
		consolidado); err != nil {
		return err
	}
	return data.WriteCSV(filepath.Join(sqlDir, "operadoras_ativas.csv"),
		[]string{"cnpj", "registro_ans", "modalidade", "uf"},
		operadoras)
}

func exportAggregated(processedDir, sqlDir string) error {
	src := filepath.Join(processedDir, "despesas_agregadas.csv")
	header, rows, err := data.ReadCSV(src)
	if err != nil {
		return err
	}
	idx, err := data.RequireColumns(src, header, []string{
		"RazaoSocial", "UF", "TotalDespesas", "MediaDespesasTrimestre", "DesvioPadraoDespesas",
	})
	if err != nil {
		return err
	}

	var out [][]string
	for _, row := range rows {
		get := func(c string) string {
			i := idx[c]
			if i < len(row) {
				return row[i]
			}
			return ""
		}
		out = append(out, []string{
			get("RazaoSocial"), get("UF"), get("TotalDespesas"),
			get("MediaDespesasTrimestre"), get("DesvioPadraoDespesas"),
		})
	}
	return data.WriteCSV(filepath.Join(sqlDir, "despesas_agregadas.csv"),
		[]string{"razao_social", "uf", "total_despesas", "media_despesas_tri", "desvio_padrao_despesas"},
		out)
}
