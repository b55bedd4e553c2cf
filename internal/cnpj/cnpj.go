// Package cnpj normaliza e valida CNPJs (14 dígitos, DV por módulo 11).
package cnpj

import "strings"

var (
	weights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Normalize remove tudo que não é dígito. Não ajusta o tamanho; é a
// variante usada pela API ao comparar identificadores vindos da URL.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePad remove não-dígitos e força 14 posições: left-pad com zeros
// quando curto, mantém os 14 últimos dígitos quando longo. Entrada sem
// dígitos vira string vazia. É a variante usada pelo pipeline (extração,
// cadastro e enriquecimento).
func NormalizePad(s string) string {
	digits := Normalize(s)
	if digits == "" {
		return ""
	}
	if len(digits) > 14 {
		return digits[len(digits)-14:]
	}
	return strings.Repeat("0", 14-len(digits)) + digits
}

// Valid verifica os dois dígitos verificadores de um CNPJ já normalizado.
// Só aceita strings com exatamente 14 dígitos; sequências com todos os
// dígitos iguais são sempre inválidas.
func Valid(s string) bool {
	if len(s) != 14 {
		return false
	}
	nums := make([]int, 14)
	allEqual := true
	for i := 0; i < 14; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		nums[i] = int(c - '0')
		if nums[i] != nums[0] {
			allEqual = false
		}
	}
	if allEqual {
		return false
	}

	s1 := 0
	for i, w := range weights1 {
		s1 += nums[i] * w
	}
	d1 := 11 - (s1 % 11)
	if d1 >= 10 {
		d1 = 0
	}

	s2 := 0
	for i, w := range weights2 {
		s2 += nums[i] * w
	}
	d2 := 11 - (s2 % 11)
	if d2 >= 10 {
		d2 = 0
	}

	return nums[12] == d1 && nums[13] == d2
}
