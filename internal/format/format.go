// Package format renders order values for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	emptyValue   = "-"
	emptyPayCode = "------"

	maxFractionDigits = 3
)

// Currency formats amount with en-US digit grouping, e.g. 1234567.5 -> 1,234,567.5
func Currency(amount decimal.Decimal) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprintf("%v", number.Decimal(amount.Round(maxFractionDigits).InexactFloat64(), number.MaxFractionDigits(maxFractionDigits)))
}

// CurrencyString formats decimal string, "-" when it is not a number
func CurrencyString(s string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return emptyValue
	}
	return Currency(d)
}

// PayCode groups pay code into blocks of width separated by spaces
func PayCode(code string, width int) string {
	if code == "" {
		return emptyPayCode
	}
	if width <= 0 {
		width = 4
	}

	var b strings.Builder
	runes := []rune(code)
	for i := 0; i < len(runes); i += width {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(i+width, len(runes))
		b.WriteString(string(runes[i:end]))
	}
	return b.String()
}
