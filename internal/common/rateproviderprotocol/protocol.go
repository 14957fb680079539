package rateproviderprotocol

import (
	"time"

	"go-marketplace/internal/marketplace/currency"

	"github.com/shopspring/decimal"
)

// RateResponse is the body of GET /api/rates/{from}/{to}.
type RateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
	AsOf *time.Time      `json:"as_of,omitempty"`
}

// Quote is a rate the provider returned for one pair. AsOf is the provider's
// quote time, zero when the provider did not send one.
type Quote struct {
	Pair currency.Pair
	Rate decimal.Decimal
	AsOf time.Time
}

type PairFailure struct {
	Pair currency.Pair
	Err  error
}
