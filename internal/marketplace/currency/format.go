package currency

import (
	"strings"
)

// Format renders m with the display rules of its currency. Unknown currencies
// fall back to "<amount> <CODE>".
func Format(m Money) string {
	info, ok := table[m.Currency]
	if !ok {
		return m.String()
	}
	return FormatWith(m, info.Rules)
}

// FormatWith renders m with explicit rules. It performs no I/O.
func FormatWith(m Money, r DisplayRules) string {
	negative := m.Amount < 0
	abs := m.Major().Abs().StringFixed(r.MinorUnits)

	intPart, fracPart, _ := strings.Cut(abs, ".")
	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	if r.Position == Prefix {
		sb.WriteString(r.Symbol)
		if r.SpaceAfterSymbol {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(group(intPart, r.ThousandsSeparator))
	if r.MinorUnits > 0 {
		sb.WriteString(r.DecimalSeparator)
		sb.WriteString(fracPart)
	}
	if r.Position == Suffix {
		if r.SpaceAfterSymbol {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Symbol)
	}
	return sb.String()
}

func group(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	var sb strings.Builder
	sb.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		sb.WriteString(sep)
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
