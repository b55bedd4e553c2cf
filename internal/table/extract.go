package table

import (
	"strings"

	"github.com/Jesseh78/intuitivecare-test/internal/cnpj"
	"github.com/Jesseh78/intuitivecare-test/internal/money"
)

// Extract aplica o mapeamento de colunas e devolve as linhas válidas do
// arquivo. Linhas que não fecham (CNPJ fora de 14 dígitos, valor ausente,
// razão social vazia na variante com CNPJ) são descartadas em silêncio;
// valores zero ou negativos saem separados em nonPositive para auditoria.
// ok=false significa que nenhuma variante de esquema casou e o arquivo
// deve ser pulado.
func Extract(t *Table, year, quarter int, source string) (records, nonPositive []Record, ok bool) {
	cm, ok := mapColumns(t.Headers)
	if !ok {
		return nil, nil, false
	}

	for _, row := range t.Rows {
		id := cell(row, cm.id)
		valueText := cell(row, cm.value)

		var nome, num string
		switch cm.variant {
		case variantCNPJ:
			nome = strings.TrimSpace(cell(row, cm.name))
			if nome == "" || strings.EqualFold(nome, "nan") {
				continue
			}
			// aqui a normalização é só strip; o pad fica para o
			// enriquecimento (step 2)
			num = cnpj.Normalize(id)
		case variantRegistro:
			// sem coluna própria: registro ANS serve de identificador e
			// de nome, com pad para fechar os 14 dígitos
			nome = strings.TrimSpace(id)
			if nome == "" {
				continue
			}
			num = cnpj.NormalizePad(id)
		}
		if len(num) != 14 {
			continue
		}

		valor, parsed := money.ParseAmount(valueText)
		if !parsed {
			continue
		}

		rec := Record{
			CNPJ:        num,
			RazaoSocial: nome,
			Ano:         year,
			Trimestre:   quarter,
			Valor:       valor,
			Fonte:       source,
		}
		if valor <= 0 {
			nonPositive = append(nonPositive, rec)
			continue
		}
		records = append(records, rec)
	}
	return records, nonPositive, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
