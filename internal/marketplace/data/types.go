package data

import (
	"time"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/location"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is directed: From->To need not be the inverse of To->From.
type ExchangeRate struct {
	From        currency.Code
	To          currency.Code
	Rate        decimal.Decimal
	LastUpdated time.Time
}

type Profile struct {
	ID                  int64
	Role                access.Role
	Location            location.Location
	BaseCurrency        currency.Code
	CurrencyPreferences []currency.Code
	FeatureAccess       access.Capabilities
	CreatedAt           time.Time
}

type ShippingProvider struct {
	ID         uuid.UUID
	Name       string
	Countries  []string
	Currencies []currency.Code
	IsActive   bool
	CreatedAt  time.Time
}

type PaymentMethod struct {
	ID         uuid.UUID
	Name       string
	Type       string
	Countries  []string
	Currencies []currency.Code
	IsActive   bool
	CreatedAt  time.Time
}
