package view

import "fmt"

// MoneyFCFA formats an amount in francs CFA with thousands separators.
// E.g., 75000 -> "75 000 FCFA"
func MoneyFCFA(montant int64) string {
	s := fmt.Sprintf("%d", montant)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		out = append([]byte{'-'}, out...)
	}
	return string(out) + " FCFA"
}

// Hectares formats a surface with two decimals.
func Hectares(ha float64) string {
	return fmt.Sprintf("%.2f ha", ha)
}
