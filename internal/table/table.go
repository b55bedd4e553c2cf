// Package table lê os arquivos extraídos dos zips trimestrais. Os layouts
// variam entre trimestres: separador, encoding de nome de coluna e até o
// conjunto de colunas mudam. A detecção é feita por tentativa ordenada de
// separadores e por listas de padrões de cabeçalho.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record é uma linha de despesa extraída de um arquivo fonte, ainda sem
// resolução de conflitos entre trimestres.
type Record struct {
	CNPJ        string
	RazaoSocial string
	Ano         int
	Trimestre   int
	Valor       float64
	Fonte       string
}

var expenseKeywords = []string{"despesa", "sinistro", "evento"}

// IsExpenseFile decide se o arquivo extraído é candidato a conter
// despesas com eventos/sinistros, pelo nome.
func IsExpenseFile(name string) bool {
	n := strings.ToLower(filepath.Base(name))
	for _, k := range expenseKeywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// Table é o conteúdo tabular bruto de um arquivo, antes do mapeamento.
type Table struct {
	Headers []string
	Rows    [][]string
}

var separators = []rune{';', ',', '\t', '|'}

// Read detecta o formato pelo sufixo e devolve a tabela. CSV/TXT passa
// pela tentativa ordenada de separadores; o primeiro que render pelo menos
// três colunas vence. Erro aqui significa "pule o arquivo", nunca aborta
// o pipeline.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return readDelimited(path)
	case ".xlsx", ".xls":
		return readSpreadsheet(path)
	default:
		return nil, fmt.Errorf("formato não tabular: %s", path)
	}
}

func readDelimited(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, sep := range separators {
		r := csv.NewReader(strings.NewReader(string(raw)))
		r.Comma = sep
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil || len(rows) == 0 || len(rows[0]) < 3 {
			continue
		}
		return &Table{Headers: rows[0], Rows: rows[1:]}, nil
	}
	return nil, fmt.Errorf("nenhum separador produziu 3+ colunas: %s", path)
}

func readSpreadsheet(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("planilha sem abas: %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("planilha vazia: %s", path)
	}
	return &Table{Headers: rows[0], Rows: rows[1:]}, nil
}
