package dbrepository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/pkg/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

type DBStorage interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) (pgx.Row, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryValue(ctx context.Context, query string, args []any, dest []any) error
}

type DBRepository struct {
	storage DBStorage
	logger  *logging.ZapLogger
}

func New(storage DBStorage, logger *logging.ZapLogger) *DBRepository {
	return &DBRepository{
		storage: storage,
		logger:  logger,
	}
}

//go:embed sql/select_exchange_rate.sql
var selectExchangeRateQuery string

// GetRate returns data.ErrNotFound when no rate is stored for the pair.
func (db *DBRepository) GetRate(ctx context.Context, from, to currency.Code) (data.ExchangeRate, error) {
	rate := data.ExchangeRate{
		From: from,
		To:   to,
	}
	err := db.storage.QueryValue(
		ctx,
		selectExchangeRateQuery,
		[]any{string(from), string(to)},
		[]any{&rate.Rate, &rate.LastUpdated},
	)
	if err != nil {
		return data.ExchangeRate{}, handleSQLError(err)
	}
	return rate, nil
}

//go:embed sql/upsert_exchange_rate.sql
var upsertExchangeRateQuery string

func (db *DBRepository) UpsertRate(ctx context.Context, rate data.ExchangeRate) error {
	db.logger.DebugCtx(
		ctx,
		"upserting exchange rate",
		zap.String("from", string(rate.From)),
		zap.String("to", string(rate.To)),
		zap.String("rate", rate.Rate.String()),
	)
	_, err := db.storage.Exec(
		ctx,
		upsertExchangeRateQuery,
		string(rate.From),
		string(rate.To),
		rate.Rate,
		rate.LastUpdated.UTC(),
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/select_exchange_rates.sql
var selectExchangeRatesQuery string

func (db *DBRepository) ListRates(ctx context.Context) ([]data.ExchangeRate, error) {
	rows, err := db.storage.Query(ctx, selectExchangeRatesQuery)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	result := make([]data.ExchangeRate, 0)
	for rows.Next() {
		var (
			rate     data.ExchangeRate
			from, to string
		)
		if err := rows.Scan(&from, &to, &rate.Rate, &rate.LastUpdated); err != nil {
			return nil, handleSQLError(err)
		}
		rate.From = currency.Code(from)
		rate.To = currency.Code(to)
		result = append(result, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return result, nil
}

func handleSQLError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return data.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %s", data.ErrUniqueConstraintViolation, pgErr.ConstraintName)
		case checkViolationCode:
			return fmt.Errorf("check constraint %s violated: %w", pgErr.ConstraintName, err)
		}
	}
	return err
}

func codesToStrings(codes []currency.Code) []string {
	res := make([]string, len(codes))
	for i, c := range codes {
		res[i] = string(c)
	}
	return res
}

func stringsToCodes(values []string) []currency.Code {
	res := make([]currency.Code, len(values))
	for i, v := range values {
		res[i] = currency.Code(v)
	}
	return res
}

func utcNow() time.Time {
	return time.Now().UTC()
}
