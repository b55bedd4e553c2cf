// Package money interpreta valores monetários em formato brasileiro
// ("1.234,56") ou internacional ("1,234.56").
package money

import (
	"strconv"
	"strings"
)

var currencyMarks = strings.NewReplacer("R$", "", "r$", "", "$", "", " ", "", "\t", "", " ", "")

// ParseAmount converte texto monetário em float64. Quando vírgula e ponto
// aparecem juntos, o separador que aparece por último é o decimal e o outro
// é removido como agrupador de milhar. Sozinhos, tanto vírgula quanto ponto
// são tratados como decimal ("1,234" -> 1.234). Entrada vazia ou
// não-numérica retorna ok=false em vez de erro, para o chamador filtrar.
func ParseAmount(s string) (float64, bool) {
	v := currencyMarks.Replace(strings.TrimSpace(s))
	if v == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(v, ",")
	lastDot := strings.LastIndex(v, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.ReplaceAll(v, ",", ".")
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case lastComma >= 0:
		v = strings.ReplaceAll(v, ",", ".")
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
