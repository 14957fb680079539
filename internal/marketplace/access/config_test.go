package access

import (
	"encoding/json"
	"testing"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/feature"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigEnvelope(t *testing.T) {
	cfg := SellingConfig{CommissionPercent: decimal.RequireFromString("7.5"), MaxActiveListings: 50}

	raw, err := MarshalConfig(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"selling","data":{"commission_percent":"7.5","max_active_listings":50}}`, string(raw))

	decoded, err := UnmarshalConfig(raw)
	require.NoError(t, err)
	selling, ok := decoded.(SellingConfig)
	require.True(t, ok)
	assert.True(t, cfg.CommissionPercent.Equal(selling.CommissionPercent))
	assert.Equal(t, 50, selling.MaxActiveListings)
}

func TestUnmarshalConfigEscapeHatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown kind", raw: `{"kind":"promo","data":{"code":"SPRING"}}`},
		{name: "no envelope", raw: `{"anything":true}`},
		{name: "array", raw: `[1,2,3]`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := UnmarshalConfig([]byte(test.raw))
			require.NoError(t, err)
			rawCfg, ok := cfg.(RawConfig)
			require.True(t, ok)
			assert.JSONEq(t, test.raw, string(rawCfg.Data))

			again, err := MarshalConfig(cfg)
			require.NoError(t, err)
			assert.JSONEq(t, test.raw, string(again))
		})
	}
}

func TestUnmarshalConfigEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		cfg, err := UnmarshalConfig([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, cfg)
	}
	out, err := MarshalConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestUnmarshalConfigErrors(t *testing.T) {
	_, err := UnmarshalConfig([]byte(`{"kind":`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = UnmarshalConfig([]byte(`{"kind":"courier","data":{"max_distance_km":"far"}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCheckConfigFor(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		cfg     Config
		wantErr bool
	}{
		{name: "nil config", feature: string(feature.CanBuy), cfg: nil},
		{name: "matching kind", feature: string(feature.CanCourier), cfg: CourierConfig{MaxDistanceKm: 30}},
		{name: "raw for anything", feature: "marketplaceAds", cfg: RawConfig{Data: json.RawMessage(`{"a":1}`)}},
		{name: "kind mismatch", feature: string(feature.CanBuy), cfg: CourierConfig{}, wantErr: true},
		{name: "typed config for unknown feature", feature: "marketplaceAds", cfg: ListingConfig{}, wantErr: true},
		{
			name:    "commission above 100",
			feature: string(feature.CanSell),
			cfg:     SellingConfig{CommissionPercent: decimal.NewFromInt(101)},
			wantErr: true,
		},
		{
			name:    "order limit without currency",
			feature: string(feature.CanBuy),
			cfg:     BuyingConfig{MaxOrderAmount: 1000},
			wantErr: true,
		},
		{
			name:    "order limit with currency",
			feature: string(feature.CanBuy),
			cfg:     BuyingConfig{MaxOrderAmount: 1000, Currency: currency.RUB},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := CheckConfigFor(test.feature, test.cfg)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
