package clientprotocol

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Error struct {
	Error string `json:"error"`
}

type Money struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

type Conversion struct {
	Original Money           `json:"original"`
	Result   Money           `json:"result"`
	Rate     decimal.Decimal `json:"rate"`
	Composed bool            `json:"composed"`
	Stale    bool            `json:"stale"`
	RateTime *time.Time      `json:"rate_time,omitempty"`
}

type Price struct {
	Money
	Original              Money `json:"original"`
	Converted             bool  `json:"converted"`
	Stale                 bool  `json:"stale"`
	ConversionUnavailable bool  `json:"conversion_unavailable"`
}

type Currency struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	MinorUnits int32  `json:"minor_units"`
}

type Location struct {
	Location        string   `json:"location"`
	Country         string   `json:"country,omitempty"`
	DefaultCurrency string   `json:"default_currency"`
	Features        []string `json:"features"`
}

type Capabilities struct {
	CanBuy     bool `json:"canBuy"`
	CanList    bool `json:"canList"`
	CanSell    bool `json:"canSell"`
	CanCourier bool `json:"canCourier"`
	CanAdmin   bool `json:"canAdmin"`
}

type SignupInput struct {
	Role                string   `json:"role"`
	Location            string   `json:"location"`
	BaseCurrency        string   `json:"base_currency,omitempty"`
	CurrencyPreferences []string `json:"currency_preferences,omitempty"`
}

type Profile struct {
	ID                  int64        `json:"id"`
	Role                string       `json:"role"`
	Location            string       `json:"location"`
	BaseCurrency        string       `json:"base_currency"`
	CurrencyPreferences []string     `json:"currency_preferences"`
	FeatureAccess       Capabilities `json:"feature_access"`
}

type ExchangeRate struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Rate        decimal.Decimal `json:"rate"`
	LastUpdated time.Time       `json:"last_updated"`
}

type RateInput struct {
	Rate decimal.Decimal `json:"rate"`
}

type PairFailure struct {
	Pair  string `json:"pair"`
	Error string `json:"error"`
}

type RefreshResult struct {
	Batch     string        `json:"batch"`
	Updated   []string      `json:"updated"`
	Unchanged []string      `json:"unchanged"`
	Failed    []PairFailure `json:"failed"`
}

// Rule configuration travels as {"kind": "...", "data": {...}}. Documents of
// other shapes are stored verbatim.
type Rule struct {
	ID            string          `json:"id"`
	Location      string          `json:"location"`
	FeatureName   string          `json:"feature_name"`
	IsEnabled     bool            `json:"is_enabled"`
	Configuration json.RawMessage `json:"configuration"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type RuleInput struct {
	Location      string          `json:"location"`
	FeatureName   string          `json:"feature_name"`
	IsEnabled     bool            `json:"is_enabled"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

type RuleUpdate struct {
	IsEnabled     *bool           `json:"is_enabled"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

type CatalogInput struct {
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Countries  []string `json:"countries"`
	Currencies []string `json:"currencies"`
}

type ShippingProvider struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Countries  []string  `json:"countries"`
	Currencies []string  `json:"currencies"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type PaymentMethod struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Countries  []string  `json:"countries"`
	Currencies []string  `json:"currencies"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
