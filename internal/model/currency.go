package model

// Fixed exchange rates into the reporting currency (USD equivalent).
const (
	RateUSD = 1.0
	RateEUR = 1.09
	RateBTC = 41205.5
)

// Rates maps a payment state to its conversion factor into the reporting currency.
type Rates map[FeePaidBy]float64

// DefaultRates returns the clinic's fixed rate table. UNPAID amounts convert 1:1.
func DefaultRates() Rates {
	return Rates{
		FeePaidUSD: RateUSD,
		FeePaidEUR: RateEUR,
		FeePaidBTC: RateBTC,
		FeeUnpaid:  1,
	}
}

// Rate returns the factor for f, defaulting to 1 for unknown states.
func (r Rates) Rate(f FeePaidBy) float64 {
	if rate, ok := r[f]; ok {
		return rate
	}
	return 1
}

// Normalize converts amount expressed in f into the reporting currency.
func (r Rates) Normalize(f FeePaidBy, amount float64) float64 {
	return amount * r.Rate(f)
}
