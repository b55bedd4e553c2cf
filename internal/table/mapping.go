package table

import (
	"strings"
)

// Os dois esquemas conhecidos dos arquivos de despesas:
//
//	variantCNPJ    — colunas de CNPJ, razão social e valor de despesa;
//	variantRegistro — só registro ANS + saldo contábil; CNPJ e razão social
//	                  são derivados do próprio registro.
//
// O mapeamento é substring sobre o cabeçalho normalizado (sem espaços,
// minúsculo); o primeiro padrão que casar vence, na ordem da lista.
type variant int

const (
	variantNone variant = iota
	variantCNPJ
	variantRegistro
)

var (
	cnpjPatterns     = []string{"cnpj"}
	namePatterns     = []string{"razaosocial", "razao", "nome"}
	valuePatterns    = []string{"valordesp", "valor_desp", "valor", "vlr", "vld"}
	registroPatterns = []string{"reg_ans", "registroans", "registro"}
	saldoPatterns    = []string{"vl_saldo_final", "vl_saldo", "saldo_final", "saldo"}
)

type columnMap struct {
	variant variant
	id      int // CNPJ ou registro ANS
	name    int // -1 na variante registro
	value   int
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

func findColumn(headers []string, patterns []string) int {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}
	for _, p := range patterns {
		for i, h := range norm {
			if strings.Contains(h, p) {
				return i
			}
		}
	}
	return -1
}

// mapColumns tenta as variantes em ordem e fica com a primeira que fechar.
func mapColumns(headers []string) (columnMap, bool) {
	if id := findColumn(headers, cnpjPatterns); id >= 0 {
		name := findColumn(headers, namePatterns)
		value := findColumn(headers, valuePatterns)
		if name >= 0 && value >= 0 {
			return columnMap{variant: variantCNPJ, id: id, name: name, value: value}, true
		}
	}
	if id := findColumn(headers, registroPatterns); id >= 0 {
		if value := findColumn(headers, saldoPatterns); value >= 0 {
			return columnMap{variant: variantRegistro, id: id, name: -1, value: value}, true
		}
	}
	return columnMap{}, false
}
