package utils

const CNPJLength = 14

// remove qualquer coisa que não seja dígito ASCII (dígitos de outros alfabetos também saem)
func SanitizeCNPJ(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; '0' <= c && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}

// ValidateCNPJ: 14 dígitos e nem todos iguais (cadastro de empresas).
// Solicitações só exigem o tamanho, ver validation.Validate.
func ValidateCNPJ(cnpj string) bool {
	if len(cnpj) != CNPJLength {
		return false
	}
	allEq := true
	for i := 1; i < CNPJLength; i++ {
		if cnpj[i] != cnpj[0] {
			allEq = false
			break
		}
	}
	return !allEq
}

// FormatCNPJ devolve 00.000.000/0000-00; entradas fora do padrão voltam sem alteração.
func FormatCNPJ(digits string) string {
	if len(digits) != CNPJLength || SanitizeCNPJ(digits) != digits {
		return digits
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}
