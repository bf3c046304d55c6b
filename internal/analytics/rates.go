package analytics

import "strings"

// ExchangeRates converts invoice totals into the reporting currency before
// they are summed. Rates[code] is the value of one unit of code in Base.
// Currencies without a rate are taken at face value.
type ExchangeRates struct {
	Base  string
	Rates map[string]float64
}

// Convert returns amount expressed in the reporting currency.
func (r ExchangeRates) Convert(amount float64, currency string) float64 {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == strings.ToUpper(r.Base) {
		return amount
	}
	if rate, ok := r.Rates[code]; ok {
		return amount * rate
	}
	return amount
}
