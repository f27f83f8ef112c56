// Package currency converts and formats prices. Rates come from an ordered
// source cascade with a 24-hour cache; stale entries remain usable as a
// last-resort fallback so price features degrade instead of failing.
package currency

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Symbols recognized in supplier price strings, longest first so compound
// symbols win over "$".
var symbolTable = []struct {
	symbol string
	code   string
}{
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"HK$", "HKD"},
	{"NZ$", "NZD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₩", "KRW"},
	{"₹", "INR"},
	{"₫", "VND"},
	{"zł", "PLN"},
	{"kr", "SEK"},
	{"Fr", "CHF"},
}

// Symbol returns the display symbol for a currency code, or "" when none is
// known.
func Symbol(code string) string {
	return symbolFor(strings.ToUpper(code))
}

func symbolFor(code string) string {
	for _, s := range symbolTable {
		if s.code == code {
			return s.symbol
		}
	}
	return ""
}

// decimalsFor returns the display decimal policy for a currency: 0 for
// zero-decimal currencies, 2 otherwise. x/text/currency knows the cash
// rounding scale for every ISO 4217 unit.
func decimalsFor(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Cash.Rounding(unit)
	if scale <= 0 {
		return 0
	}
	return 2
}

// ParsePrice extracts the numeric amount and currency from a raw supplier
// price string ("$1,234.50", "EUR 12.30", "4200¥"). When no symbol or ISO
// code is present the fallback currency applies.
func ParsePrice(raw, fallback string) (float64, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, "", eris.New("currency: empty price string")
	}

	code := ""
	for _, entry := range symbolTable {
		if strings.Contains(s, entry.symbol) {
			code = entry.code
			s = strings.ReplaceAll(s, entry.symbol, "")
			break
		}
	}

	if code == "" {
		// Look for a three-letter ISO code at either end.
		fields := strings.Fields(s)
		for i, f := range fields {
			up := strings.ToUpper(f)
			if len(up) == 3 && isAlpha(up) {
				if _, err := currency.ParseISO(up); err == nil {
					code = up
					fields = append(fields[:i], fields[i+1:]...)
					s = strings.Join(fields, " ")
					break
				}
			}
		}
	}

	if code == "" {
		code = strings.ToUpper(fallback)
	}

	// Strip everything but digits, separators, and sign.
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	numeric := strings.ReplaceAll(b.String(), ",", "")
	if numeric == "" {
		return 0, "", eris.Errorf("currency: no numeric value in %q", raw)
	}

	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return 0, "", eris.Wrapf(err, "currency: parse %q", raw)
	}
	amount, _ := d.Float64()
	return amount, code, nil
}

// Format renders an amount in the currency's display convention: its symbol
// when known (ISO code prefix otherwise) and the currency's decimal policy.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	d := decimal.NewFromFloat(amount).Round(int32(decimalsFor(code)))
	text := d.StringFixed(int32(decimalsFor(code)))
	if sym := symbolFor(code); sym != "" {
		return sym + text
	}
	return code + " " + text
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
