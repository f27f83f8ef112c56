package model

import "time"

// ExchangeRate is a single cached currency pair.
type ExchangeRate struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Rate        float64   `json:"rate"`
	LastUpdated time.Time `json:"last_updated"`
}

// CurrencyRates is a full rate table against one base currency.
type CurrencyRates struct {
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	LastUpdated time.Time          `json:"last_updated"`
}
