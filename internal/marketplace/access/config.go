package access

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/feature"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidConfig = errors.New("invalid feature configuration")
)

type ConfigKind string

const (
	KindBuying  ConfigKind = "buying"
	KindListing ConfigKind = "listing"
	KindSelling ConfigKind = "selling"
	KindCourier ConfigKind = "courier"
	KindRaw     ConfigKind = "raw"
)

// Config is the per-feature configuration attached to a rule. A nil Config
// means the rule carries none.
type Config interface {
	Kind() ConfigKind
	Validate() error
}

type BuyingConfig struct {
	MaxOrderAmount int64         `json:"max_order_amount,omitempty"`
	Currency       currency.Code `json:"currency,omitempty"`
}

func (BuyingConfig) Kind() ConfigKind { return KindBuying }

func (c BuyingConfig) Validate() error {
	if c.MaxOrderAmount < 0 {
		return fmt.Errorf("%w: max_order_amount must not be negative", ErrInvalidConfig)
	}
	if c.MaxOrderAmount > 0 && !c.Currency.Valid() {
		return fmt.Errorf("%w: max_order_amount needs a supported currency", ErrInvalidConfig)
	}
	return nil
}

type ListingConfig struct {
	MaxPhotos          int  `json:"max_photos,omitempty"`
	RequiresModeration bool `json:"requires_moderation"`
}

func (ListingConfig) Kind() ConfigKind { return KindListing }

func (c ListingConfig) Validate() error {
	if c.MaxPhotos < 0 {
		return fmt.Errorf("%w: max_photos must not be negative", ErrInvalidConfig)
	}
	return nil
}

type SellingConfig struct {
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	MaxActiveListings int             `json:"max_active_listings,omitempty"`
}

func (SellingConfig) Kind() ConfigKind { return KindSelling }

var hundred = decimal.NewFromInt(100)

func (c SellingConfig) Validate() error {
	if c.CommissionPercent.IsNegative() || c.CommissionPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: commission_percent must be within [0, 100]", ErrInvalidConfig)
	}
	if c.MaxActiveListings < 0 {
		return fmt.Errorf("%w: max_active_listings must not be negative", ErrInvalidConfig)
	}
	return nil
}

type CourierConfig struct {
	MaxDistanceKm int      `json:"max_distance_km,omitempty"`
	ServiceAreas  []string `json:"service_areas,omitempty"`
}

func (CourierConfig) Kind() ConfigKind { return KindCourier }

func (c CourierConfig) Validate() error {
	if c.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: max_distance_km must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RawConfig keeps configuration of kinds this build does not know verbatim.
type RawConfig struct {
	Data json.RawMessage
}

func (RawConfig) Kind() ConfigKind { return KindRaw }

func (c RawConfig) Validate() error {
	if !json.Valid(c.Data) {
		return fmt.Errorf("%w: raw configuration is not valid JSON", ErrInvalidConfig)
	}
	return nil
}

// ExpectedKind is the typed configuration kind a feature accepts. Raw
// configuration is accepted for every feature.
func ExpectedKind(n feature.Name) (ConfigKind, bool) {
	switch n {
	case feature.CanBuy:
		return KindBuying, true
	case feature.CanList:
		return KindListing, true
	case feature.CanSell:
		return KindSelling, true
	case feature.CanCourier:
		return KindCourier, true
	}
	return "", false
}

// CheckConfigFor validates cfg and that its kind fits featureName.
func CheckConfigFor(featureName string, cfg Config) error {
	if cfg == nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Kind() == KindRaw {
		return nil
	}
	n, ok := feature.Parse(featureName)
	if !ok {
		return fmt.Errorf("%w: feature %q accepts only raw configuration", ErrInvalidConfig, featureName)
	}
	expected, ok := ExpectedKind(n)
	if !ok || expected != cfg.Kind() {
		return fmt.Errorf("%w: feature %q does not accept %q configuration", ErrInvalidConfig, featureName, cfg.Kind())
	}
	return nil
}

type envelope struct {
	Kind ConfigKind      `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalConfig encodes cfg as {"kind": ..., "data": {...}}. nil encodes as null.
func MarshalConfig(cfg Config) ([]byte, error) {
	if cfg == nil {
		return []byte("null"), nil
	}
	if raw, ok := cfg.(RawConfig); ok {
		if len(raw.Data) == 0 {
			return []byte("null"), nil
		}
		return raw.Data, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s configuration: %w", cfg.Kind(), err)
	}
	return json.Marshal(envelope{Kind: cfg.Kind(), Data: data})
}

// UnmarshalConfig decodes what MarshalConfig produced. Documents that are not a
// known envelope come back as RawConfig.
func UnmarshalConfig(raw []byte) (Config, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return RawConfig{Data: json.RawMessage(trimmed)}, nil
	}
	var (
		cfg Config
		err error
	)
	switch env.Kind {
	case KindBuying:
		cfg, err = decodeData[BuyingConfig](env.Data)
	case KindListing:
		cfg, err = decodeData[ListingConfig](env.Data)
	case KindSelling:
		cfg, err = decodeData[SellingConfig](env.Data)
	case KindCourier:
		cfg, err = decodeData[CourierConfig](env.Data)
	default:
		return RawConfig{Data: json.RawMessage(trimmed)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, env.Kind, err)
	}
	return cfg, nil
}

func decodeData[T Config](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	err := json.Unmarshal(data, &out)
	return out, err
}
