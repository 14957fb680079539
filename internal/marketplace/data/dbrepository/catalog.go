package dbrepository

import (
	"context"
	_ "embed"

	"go-marketplace/internal/marketplace/data"

	"github.com/jackc/pgx/v5"
)

//go:embed sql/insert_shipping_provider.sql
var insertShippingProviderQuery string

func (db *DBRepository) InsertShippingProvider(ctx context.Context, provider data.ShippingProvider) error {
	_, err := db.storage.Exec(
		ctx,
		insertShippingProviderQuery,
		provider.ID,
		provider.Name,
		provider.Countries,
		codesToStrings(provider.Currencies),
		provider.IsActive,
		provider.CreatedAt,
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/select_shipping_providers.sql
var selectShippingProvidersQuery string

// GetShippingProviders returns active providers serving country plus the ones
// without a country restriction.
func (db *DBRepository) GetShippingProviders(ctx context.Context, country string) ([]data.ShippingProvider, error) {
	rows, err := db.storage.Query(ctx, selectShippingProvidersQuery, country)
	if err != nil {
		return nil, handleSQLError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (data.ShippingProvider, error) {
		var (
			p          data.ShippingProvider
			currencies []string
		)
		if err := row.Scan(&p.ID, &p.Name, &p.Countries, &currencies, &p.IsActive, &p.CreatedAt); err != nil {
			return data.ShippingProvider{}, handleSQLError(err)
		}
		p.Currencies = stringsToCodes(currencies)
		return p, nil
	})
}

//go:embed sql/insert_payment_method.sql
var insertPaymentMethodQuery string

func (db *DBRepository) InsertPaymentMethod(ctx context.Context, method data.PaymentMethod) error {
	_, err := db.storage.Exec(
		ctx,
		insertPaymentMethodQuery,
		method.ID,
		method.Name,
		method.Type,
		method.Countries,
		codesToStrings(method.Currencies),
		method.IsActive,
		method.CreatedAt,
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/select_payment_methods.sql
var selectPaymentMethodsQuery string

func (db *DBRepository) GetPaymentMethods(ctx context.Context, country string) ([]data.PaymentMethod, error) {
	rows, err := db.storage.Query(ctx, selectPaymentMethodsQuery, country)
	if err != nil {
		return nil, handleSQLError(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (data.PaymentMethod, error) {
		var (
			m          data.PaymentMethod
			currencies []string
		)
		if err := row.Scan(&m.ID, &m.Name, &m.Type, &m.Countries, &currencies, &m.IsActive, &m.CreatedAt); err != nil {
			return data.PaymentMethod{}, handleSQLError(err)
		}
		m.Currencies = stringsToCodes(currencies)
		return m, nil
	})
}
