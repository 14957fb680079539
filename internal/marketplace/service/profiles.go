package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/pkg/logging"

	"go.uber.org/zap"
)

var (
	ProfileIDClaimName = "profile_id"
	RoleClaimName      = "role"
)

type ProfileRepository interface {
	InsertProfile(ctx context.Context, profile *data.Profile) error
	GetProfile(ctx context.Context, id int64) (data.Profile, error)
	SetFeatureAccess(ctx context.Context, id int64, caps access.Capabilities) error
}

type DefaultCurrencies interface {
	DefaultCurrencyFor(loc location.Location) currency.Code
}

type PriceDisplayer interface {
	Display(ctx context.Context, amount currency.Money, target currency.Code) DisplayPrice
}

type SignupInput struct {
	Role                string
	Location            string
	BaseCurrency        string
	CurrencyPreferences []string
}

type Profiles struct {
	repository         ProfileRepository
	transactionManager TransactionManager
	resolver           CapabilityResolver
	currencies         DefaultCurrencies
	prices             PriceDisplayer
	tokenFactory       TokenFactory
	logger             *logging.ZapLogger
}

func NewProfiles(
	repository ProfileRepository,
	transactionManager TransactionManager,
	resolver CapabilityResolver,
	currencies DefaultCurrencies,
	prices PriceDisplayer,
	tokenFactory TokenFactory,
	logger *logging.ZapLogger,
) *Profiles {
	return &Profiles{
		repository:         repository,
		transactionManager: transactionManager,
		resolver:           resolver,
		currencies:         currencies,
		prices:             prices,
		tokenFactory:       tokenFactory,
		logger:             logger,
	}
}

// Register creates a profile with its feature access snapshot and returns a
// token for it. ADMIN profiles cannot be self-registered.
func (p *Profiles) Register(ctx context.Context, input SignupInput) (data.Profile, string, error) {
	role, ok := access.ParseRole(input.Role)
	if !ok || role == access.Admin {
		return data.Profile{}, "", fmt.Errorf("%w: role %q cannot sign up", ErrInvalidInput, input.Role)
	}
	loc := location.Normalize(input.Location)

	base := p.currencies.DefaultCurrencyFor(loc)
	if input.BaseCurrency != "" {
		code, err := currency.Parse(input.BaseCurrency)
		if err != nil {
			return data.Profile{}, "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		base = code
	}
	preferences, err := parsePreferences(input.CurrencyPreferences)
	if err != nil {
		return data.Profile{}, "", err
	}

	profile := data.Profile{
		Role:                role,
		Location:            loc,
		BaseCurrency:        base,
		CurrencyPreferences: preferences,
	}
	var token string
	err = p.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		profile.FeatureAccess = p.resolver.Resolve(ctx, role, loc)
		if err := p.repository.InsertProfile(ctx, &profile); err != nil {
			return fmt.Errorf("inserting profile failed: %w", err)
		}
		issued, err := p.token(profile)
		if err != nil {
			return err
		}
		token = issued
		return nil
	})
	if err != nil {
		return data.Profile{}, "", err //nolint:wrapcheck // unnecessary
	}
	p.logger.InfoCtx(ctx, "profile registered",
		zap.Int64("profileID", profile.ID),
		zap.String("role", string(role)),
		zap.String("location", string(loc)),
	)
	return profile, token, nil
}

// Capabilities resolves the profile's access live. A stored snapshot that no
// longer matches is overwritten.
func (p *Profiles) Capabilities(ctx context.Context, profileID int64) (access.Capabilities, error) {
	profile, err := p.get(ctx, profileID)
	if err != nil {
		return access.Capabilities{}, err
	}
	caps := p.resolver.Resolve(ctx, profile.Role, profile.Location)
	if caps != profile.FeatureAccess {
		if err := p.repository.SetFeatureAccess(ctx, profileID, caps); err != nil {
			p.logger.WarnCtx(ctx, "failed to refresh feature access snapshot",
				zap.Int64("profileID", profileID), zap.Error(err))
		}
	}
	return caps, nil
}

// Price renders amount in the profile's base currency, or in the default
// currency of its location when the base currency is not supported.
func (p *Profiles) Price(ctx context.Context, profileID int64, amount currency.Money) (DisplayPrice, error) {
	profile, err := p.get(ctx, profileID)
	if err != nil {
		return DisplayPrice{}, err
	}
	target := profile.BaseCurrency
	if !target.Valid() {
		target = p.currencies.DefaultCurrencyFor(profile.Location)
	}
	return p.prices.Display(ctx, amount, target), nil
}

// IssueToken signs a token for an existing profile.
func (p *Profiles) IssueToken(ctx context.Context, profileID int64) (string, error) {
	profile, err := p.get(ctx, profileID)
	if err != nil {
		return "", err
	}
	return p.token(profile)
}

func (p *Profiles) get(ctx context.Context, profileID int64) (data.Profile, error) {
	profile, err := p.repository.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return data.Profile{}, fmt.Errorf("%w: profile %d", ErrNotFound, profileID)
		}
		return data.Profile{}, fmt.Errorf("getting profile failed: %w", err)
	}
	return profile, nil
}

func (p *Profiles) token(profile data.Profile) (string, error) {
	token, err := p.tokenFactory.Generate(map[string]string{
		ProfileIDClaimName: strconv.FormatInt(profile.ID, 10),
		RoleClaimName:      string(profile.Role),
	})
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}

func parsePreferences(values []string) ([]currency.Code, error) {
	res := make([]currency.Code, 0, len(values))
	seen := make(map[currency.Code]struct{}, len(values))
	for _, v := range values {
		code, err := currency.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		res = append(res, code)
	}
	return res, nil
}
