package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) InsertProfile(ctx context.Context, profile *data.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, id int64) (data.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(data.Profile), args.Error(1)
}

func (m *MockProfileRepository) SetFeatureAccess(ctx context.Context, id int64, caps access.Capabilities) error {
	return m.Called(ctx, id, caps).Error(0)
}

type MockCapabilityResolver struct {
	mock.Mock
}

func (m *MockCapabilityResolver) Resolve(
	ctx context.Context,
	role access.Role,
	loc location.Location,
) access.Capabilities {
	return m.Called(ctx, role, loc).Get(0).(access.Capabilities)
}

type stubTokens struct {
	claims map[string]string
	err    error
}

func (s *stubTokens) Generate(extraClaims map[string]string) (string, error) {
	s.claims = extraClaims
	if s.err != nil {
		return "", s.err
	}
	return "signed-token", nil
}

type profilesFixture struct {
	profiles   *Profiles
	repository *MockProfileRepository
	resolver   *MockCapabilityResolver
	rates      *memoryRates
	tokens     *stubTokens
}

func newProfilesFixture(t *testing.T) profilesFixture {
	t.Helper()
	registry, err := location.NewRegistry(currency.USD)
	require.NoError(t, err)

	f := profilesFixture{
		repository: &MockProfileRepository{},
		resolver:   &MockCapabilityResolver{},
		rates:      newMemoryRates(),
		tokens:     &stubTokens{},
	}
	converter := newTestConverter(f.rates, NopMetrics())
	f.profiles = NewProfiles(
		f.repository,
		&inlineTransactions{},
		f.resolver,
		registry,
		converter,
		f.tokens,
		logging.NewNop(),
	)
	return f
}

func TestProfilesRegister(t *testing.T) {
	f := newProfilesFixture(t)
	caps := access.Capabilities{CanBuy: true, CanList: true, CanCourier: true}

	f.resolver.On("Resolve", mock.Anything, access.Courier, location.Russia).Return(caps).Once()
	f.repository.On("InsertProfile", mock.Anything, mock.AnythingOfType("*data.Profile")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*data.Profile).ID = 42
		}).Return(nil).Once()

	profile, token, err := f.profiles.Register(context.Background(), SignupInput{
		Role:                "COURIER",
		Location:            "russia",
		CurrencyPreferences: []string{"usd", "EUR", "USD"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), profile.ID)
	assert.Equal(t, currency.RUB, profile.BaseCurrency)
	assert.Equal(t, []currency.Code{currency.USD, currency.EUR}, profile.CurrencyPreferences)
	assert.Equal(t, caps, profile.FeatureAccess)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, "42", f.tokens.claims[ProfileIDClaimName])
	assert.Equal(t, "COURIER", f.tokens.claims[RoleClaimName])
	f.repository.AssertExpectations(t)
	f.resolver.AssertExpectations(t)
}

func TestProfilesRegisterUnknownLocation(t *testing.T) {
	f := newProfilesFixture(t)

	f.resolver.On("Resolve", mock.Anything, access.User, location.Other).
		Return(access.Capabilities{CanBuy: true, CanList: true}).Once()
	f.repository.On("InsertProfile", mock.Anything, mock.Anything).Return(nil).Once()

	profile, _, err := f.profiles.Register(context.Background(), SignupInput{
		Role:         "USER",
		Location:     "atlantis",
		BaseCurrency: "chf",
	})
	require.NoError(t, err)
	assert.Equal(t, location.Other, profile.Location)
	assert.Equal(t, currency.CHF, profile.BaseCurrency)
}

func TestProfilesRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		input SignupInput
	}{
		{name: "admin", input: SignupInput{Role: "ADMIN", Location: "us"}},
		{name: "unknown role", input: SignupInput{Role: "PIRATE", Location: "us"}},
		{name: "unknown base currency", input: SignupInput{Role: "USER", Location: "us", BaseCurrency: "XXX"}},
		{name: "unknown preference", input: SignupInput{Role: "USER", Location: "us", CurrencyPreferences: []string{"DOGE"}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newProfilesFixture(t)

			_, _, err := f.profiles.Register(context.Background(), test.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
			f.repository.AssertNotCalled(t, "InsertProfile", mock.Anything, mock.Anything)
		})
	}
}

func TestProfilesRegisterTokenFailure(t *testing.T) {
	f := newProfilesFixture(t)
	f.tokens.err = errors.New("no key")

	f.resolver.On("Resolve", mock.Anything, access.Vendor, location.UK).Return(access.Capabilities{}).Once()
	f.repository.On("InsertProfile", mock.Anything, mock.Anything).Return(nil).Once()

	_, _, err := f.profiles.Register(context.Background(), SignupInput{Role: "VENDOR", Location: "uk"})
	assert.Error(t, err)
}

func TestProfilesCapabilities(t *testing.T) {
	stored := data.Profile{
		ID:            7,
		Role:          access.Vendor,
		Location:      location.Germany,
		FeatureAccess: access.Capabilities{CanBuy: true, CanList: true, CanSell: true},
	}

	t.Run("snapshot still current", func(t *testing.T) {
		f := newProfilesFixture(t)
		f.repository.On("GetProfile", mock.Anything, int64(7)).Return(stored, nil).Once()
		f.resolver.On("Resolve", mock.Anything, access.Vendor, location.Germany).Return(stored.FeatureAccess).Once()

		caps, err := f.profiles.Capabilities(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, stored.FeatureAccess, caps)
		f.repository.AssertNotCalled(t, "SetFeatureAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("revoked after signup", func(t *testing.T) {
		f := newProfilesFixture(t)
		live := access.Capabilities{CanBuy: true, CanList: true}
		f.repository.On("GetProfile", mock.Anything, int64(7)).Return(stored, nil).Once()
		f.resolver.On("Resolve", mock.Anything, access.Vendor, location.Germany).Return(live).Once()
		f.repository.On("SetFeatureAccess", mock.Anything, int64(7), live).Return(nil).Once()

		caps, err := f.profiles.Capabilities(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, live, caps)
		f.repository.AssertExpectations(t)
	})

	t.Run("unknown profile", func(t *testing.T) {
		f := newProfilesFixture(t)
		f.repository.On("GetProfile", mock.Anything, int64(8)).Return(data.Profile{}, data.ErrNotFound).Once()

		_, err := f.profiles.Capabilities(context.Background(), 8)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProfilesPrice(t *testing.T) {
	f := newProfilesFixture(t)
	f.rates.put(currency.RUB, currency.USD, "0.011", testNow.Add(-time.Hour))
	f.repository.On("GetProfile", mock.Anything, int64(3)).Return(data.Profile{
		ID:           3,
		Role:         access.User,
		Location:     location.US,
		BaseCurrency: currency.USD,
	}, nil)
	f.repository.On("GetProfile", mock.Anything, int64(4)).Return(data.Profile{
		ID:       4,
		Role:     access.User,
		Location: location.UK,
	}, nil)

	price, err := f.profiles.Price(context.Background(), 3, currency.New(12000000, currency.RUB))
	require.NoError(t, err)
	assert.Equal(t, "$1,320.00", price.Text)

	price, err = f.profiles.Price(context.Background(), 4, currency.New(12000000, currency.RUB))
	require.NoError(t, err)
	assert.True(t, price.Unavailable)
	assert.Equal(t, "120 000,00 ₽", price.Text)
}

func TestProfilesIssueToken(t *testing.T) {
	f := newProfilesFixture(t)
	f.repository.On("GetProfile", mock.Anything, int64(9)).Return(data.Profile{ID: 9, Role: access.Admin}, nil).Once()

	token, err := f.profiles.IssueToken(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, "ADMIN", f.tokens.claims[RoleClaimName])
}
