// Package validation contém funções de validação de dados de entrada.
package validation

import "unicode"

// IsValidCPF verifica um CPF de 11 dígitos pelos dois dígitos
// verificadores do módulo 11. Sequências de um único dígito repetido
// (ex.: "00000000000") passam no cálculo mas são inválidas.
func IsValidCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}

	digits := make([]int, 11)
	allEqual := true
	for i, ch := range cpf {
		if !unicode.IsDigit(ch) {
			return false
		}
		digits[i] = int(ch - '0')
		if digits[i] != digits[0] {
			allEqual = false
		}
	}

	if allEqual {
		return false
	}

	if checkDigit(digits, 9) != digits[9] {
		return false
	}
	return checkDigit(digits, 10) == digits[10]
}

// checkDigit calcula o dígito verificador sobre os primeiros n dígitos,
// com pesos decrescentes a partir de n+1.
func checkDigit(digits []int, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += digits[i] * (n + 1 - i)
	}

	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
