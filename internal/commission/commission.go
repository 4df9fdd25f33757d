// Package commission computes stylist payouts for recorded sales.
package commission

import (
	"strings"

	"golang.org/x/text/cases"
)

// ProductRate is the flat commission on product sales.
const ProductRate = 0.10

// DefaultRate applies to stylists without a negotiated rate.
const DefaultRate = 0.50

// specialKeywords mark coloring and keratin services.
var specialKeywords = []string{"tinte", "mechas", "keratina"}

// stylistRate is a negotiated rate keyed by a case-insensitive substring of the stylist name.
type stylistRate struct {
	match   string
	special float64
	regular float64
}

var stylistRates = []stylistRate{
	{match: "monica", special: 0.50, regular: 0.40},
	{match: "elizabeth", special: 0.60, regular: 0.50},
}

// IsSpecial reports whether the service name names a special (coloring/keratin) service.
func IsSpecial(service string) bool {
	folded := fold(service)
	for _, kw := range specialKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Rate returns the commission rate for stylist performing service.
func Rate(stylist, service string) float64 {
	name := fold(stylist)
	special := IsSpecial(service)
	for _, r := range stylistRates {
		if strings.Contains(name, r.match) {
			if special {
				return r.special
			}
			return r.regular
		}
	}
	return DefaultRate
}

// ForService returns the commission for a service sale. No rounding is applied.
func ForService(stylist, service string, amount float64) float64 {
	return amount * Rate(stylist, service)
}

// ForProduct returns the commission for a product sale.
func ForProduct(amount float64) float64 {
	return amount * ProductRate
}

func fold(s string) string {
	return cases.Fold().String(s)
}
