package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/pkg/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxFeatureNameLength = 64
	maxCatalogNameLength = 128
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	featureNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

	paymentMethodTypes = map[string]struct{}{
		"card":             {},
		"bank_transfer":    {},
		"wallet":           {},
		"cash_on_delivery": {},
		"crypto":           {},
	}
)

type AdminRepository interface {
	UpsertRate(ctx context.Context, rate data.ExchangeRate) error
	ListRates(ctx context.Context) ([]data.ExchangeRate, error)
	ListRules(ctx context.Context) ([]access.Rule, error)
	ListByLocation(ctx context.Context, loc location.Location) ([]access.Rule, error)
	GetRule(ctx context.Context, id uuid.UUID) (access.Rule, error)
	UpsertRule(ctx context.Context, rule *access.Rule) error
	UpdateRule(
		ctx context.Context,
		id uuid.UUID,
		isEnabled bool,
		cfg access.Config,
		updatedAt time.Time,
	) (access.Rule, error)
	InsertShippingProvider(ctx context.Context, provider data.ShippingProvider) error
	GetShippingProviders(ctx context.Context, country string) ([]data.ShippingProvider, error)
	InsertPaymentMethod(ctx context.Context, method data.PaymentMethod) error
	GetPaymentMethods(ctx context.Context, country string) ([]data.PaymentMethod, error)
}

type Countries interface {
	CountryFor(loc location.Location) string
}

type RuleInput struct {
	Location      string
	FeatureName   string
	IsEnabled     bool
	Configuration access.Config
}

type CatalogInput struct {
	Name       string
	Type       string
	Countries  []string
	Currencies []string
}

type Admin struct {
	repository         AdminRepository
	transactionManager TransactionManager
	countries          Countries
	logger             *logging.ZapLogger
	now                func() time.Time
}

func NewAdmin(
	repository AdminRepository,
	transactionManager TransactionManager,
	countries Countries,
	logger *logging.ZapLogger,
) *Admin {
	return &Admin{
		repository:         repository,
		transactionManager: transactionManager,
		countries:          countries,
		logger:             logger,
		now:                time.Now,
	}
}

func (a *Admin) SetRate(ctx context.Context, from, to string, rate decimal.Decimal) (data.ExchangeRate, error) {
	fromCode, err := currency.Parse(from)
	if err != nil {
		return data.ExchangeRate{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	toCode, err := currency.Parse(to)
	if err != nil {
		return data.ExchangeRate{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if fromCode == toCode {
		return data.ExchangeRate{}, fmt.Errorf("%w: rate %s->%s is implicit", ErrInvalidInput, fromCode, toCode)
	}
	rate = toRateScale(rate)
	if !rate.IsPositive() {
		return data.ExchangeRate{}, ErrInvalidRate
	}
	record := data.ExchangeRate{
		From:        fromCode,
		To:          toCode,
		Rate:        rate,
		LastUpdated: a.now().UTC(),
	}
	if err := a.repository.UpsertRate(ctx, record); err != nil {
		return data.ExchangeRate{}, fmt.Errorf("upserting exchange rate failed: %w", err)
	}
	a.logger.InfoCtx(ctx, "exchange rate set",
		zap.String("pair", currency.Pair{From: fromCode, To: toCode}.String()),
		zap.String("rate", rate.String()),
	)
	return record, nil
}

func (a *Admin) ListRates(ctx context.Context) ([]data.ExchangeRate, error) {
	rates, err := a.repository.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exchange rates failed: %w", err)
	}
	return rates, nil
}

// ListRules lists every rule, or the rules of one location when loc is set.
func (a *Admin) ListRules(ctx context.Context, loc string) ([]access.Rule, error) {
	var (
		rules []access.Rule
		err   error
	)
	if strings.TrimSpace(loc) == "" {
		rules, err = a.repository.ListRules(ctx)
	} else {
		parsed, parseErr := location.Parse(loc)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, parseErr)
		}
		rules, err = a.repository.ListByLocation(ctx, parsed)
	}
	if err != nil {
		return nil, fmt.Errorf("listing feature access rules failed: %w", err)
	}
	return rules, nil
}

// UpsertRule creates or replaces the rule for (location, feature name).
func (a *Admin) UpsertRule(ctx context.Context, input RuleInput) (access.Rule, error) {
	loc, err := location.Parse(input.Location)
	if err != nil {
		return access.Rule{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	name := strings.TrimSpace(input.FeatureName)
	if len(name) > maxFeatureNameLength || !featureNamePattern.MatchString(name) {
		return access.Rule{}, fmt.Errorf("%w: malformed feature name %q", ErrInvalidInput, input.FeatureName)
	}
	if err := access.CheckConfigFor(name, input.Configuration); err != nil {
		return access.Rule{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	rule := &access.Rule{
		Location:      loc,
		FeatureName:   name,
		IsEnabled:     input.IsEnabled,
		Configuration: input.Configuration,
		UpdatedAt:     a.now().UTC(),
	}
	if err := a.repository.UpsertRule(ctx, rule); err != nil {
		return access.Rule{}, fmt.Errorf("upserting feature access rule failed: %w", err)
	}
	a.logger.InfoCtx(ctx, "feature access rule saved",
		zap.String("id", rule.ID.String()),
		zap.String("location", string(rule.Location)),
		zap.String("feature", rule.FeatureName),
		zap.Bool("enabled", rule.IsEnabled),
	)
	return *rule, nil
}

// UpdateRule toggles isEnabled and replaces the configuration of rule id.
func (a *Admin) UpdateRule(
	ctx context.Context,
	id uuid.UUID,
	isEnabled bool,
	cfg access.Config,
) (access.Rule, error) {
	var updated access.Rule
	err := a.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		current, err := a.repository.GetRule(ctx, id)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return fmt.Errorf("%w: rule %s", ErrNotFound, id)
			}
			return fmt.Errorf("getting feature access rule failed: %w", err)
		}
		if err := access.CheckConfigFor(current.FeatureName, cfg); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		updated, err = a.repository.UpdateRule(ctx, id, isEnabled, cfg, a.now().UTC())
		if err != nil {
			return fmt.Errorf("updating feature access rule failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return access.Rule{}, err //nolint:wrapcheck // unnecessary
	}
	a.logger.InfoCtx(ctx, "feature access rule updated",
		zap.String("id", id.String()),
		zap.Bool("enabled", isEnabled),
	)
	return updated, nil
}

func (a *Admin) AddShippingProvider(ctx context.Context, input CatalogInput) (data.ShippingProvider, error) {
	name, countries, currencies, err := validateCatalogInput(input)
	if err != nil {
		return data.ShippingProvider{}, err
	}
	provider := data.ShippingProvider{
		ID:         uuid.New(),
		Name:       name,
		Countries:  countries,
		Currencies: currencies,
		IsActive:   true,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.repository.InsertShippingProvider(ctx, provider); err != nil {
		return data.ShippingProvider{}, conflictOr(err, "inserting shipping provider failed")
	}
	return provider, nil
}

func (a *Admin) AddPaymentMethod(ctx context.Context, input CatalogInput) (data.PaymentMethod, error) {
	name, countries, currencies, err := validateCatalogInput(input)
	if err != nil {
		return data.PaymentMethod{}, err
	}
	methodType := strings.ToLower(strings.TrimSpace(input.Type))
	if _, ok := paymentMethodTypes[methodType]; !ok {
		return data.PaymentMethod{}, fmt.Errorf("%w: unknown payment method type %q", ErrInvalidInput, input.Type)
	}
	method := data.PaymentMethod{
		ID:         uuid.New(),
		Name:       name,
		Type:       methodType,
		Countries:  countries,
		Currencies: currencies,
		IsActive:   true,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.repository.InsertPaymentMethod(ctx, method); err != nil {
		return data.PaymentMethod{}, conflictOr(err, "inserting payment method failed")
	}
	return method, nil
}

// ShippingProvidersFor lists active providers serving the country of loc.
func (a *Admin) ShippingProvidersFor(ctx context.Context, loc string) ([]data.ShippingProvider, error) {
	providers, err := a.repository.GetShippingProviders(ctx, a.countries.CountryFor(location.Normalize(loc)))
	if err != nil {
		return nil, fmt.Errorf("getting shipping providers failed: %w", err)
	}
	return providers, nil
}

func (a *Admin) PaymentMethodsFor(ctx context.Context, loc string) ([]data.PaymentMethod, error) {
	methods, err := a.repository.GetPaymentMethods(ctx, a.countries.CountryFor(location.Normalize(loc)))
	if err != nil {
		return nil, fmt.Errorf("getting payment methods failed: %w", err)
	}
	return methods, nil
}

func validateCatalogInput(input CatalogInput) (string, []string, []currency.Code, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxCatalogNameLength {
		return "", nil, nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxCatalogNameLength)
	}
	countries := make([]string, 0, len(input.Countries))
	seenCountries := make(map[string]struct{}, len(input.Countries))
	for _, c := range input.Countries {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !countryCodePattern.MatchString(c) {
			return "", nil, nil, fmt.Errorf("%w: malformed country code %q", ErrInvalidInput, c)
		}
		if _, ok := seenCountries[c]; ok {
			continue
		}
		seenCountries[c] = struct{}{}
		countries = append(countries, c)
	}
	currencies := make([]currency.Code, 0, len(input.Currencies))
	seenCurrencies := make(map[currency.Code]struct{}, len(input.Currencies))
	for _, c := range input.Currencies {
		code, err := currency.Parse(c)
		if err != nil {
			return "", nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if _, ok := seenCurrencies[code]; ok {
			continue
		}
		seenCurrencies[code] = struct{}{}
		currencies = append(currencies, code)
	}
	if len(currencies) == 0 {
		return "", nil, nil, fmt.Errorf("%w: at least one currency is required", ErrInvalidInput)
	}
	return name, countries, currencies, nil
}

func conflictOr(err error, msg string) error {
	if errors.Is(err, data.ErrUniqueConstraintViolation) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
