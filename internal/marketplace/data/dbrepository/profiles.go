package dbrepository

import (
	"context"
	_ "embed"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
)

//go:embed sql/insert_profile.sql
var insertProfileQuery string

func (db *DBRepository) InsertProfile(ctx context.Context, profile *data.Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = utcNow()
	}
	err := db.storage.QueryValue(
		ctx,
		insertProfileQuery,
		[]any{
			string(profile.Role),
			string(profile.Location),
			string(profile.BaseCurrency),
			codesToStrings(profile.CurrencyPreferences),
			profile.FeatureAccess,
			profile.CreatedAt,
		},
		[]any{&profile.ID},
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/select_profile.sql
var selectProfileQuery string

func (db *DBRepository) GetProfile(ctx context.Context, id int64) (data.Profile, error) {
	var (
		role, loc, base string
		preferences     []string
		caps            access.Capabilities
	)
	profile := data.Profile{ID: id}
	err := db.storage.QueryValue(
		ctx,
		selectProfileQuery,
		[]any{id},
		[]any{&role, &loc, &base, &preferences, &caps, &profile.CreatedAt},
	)
	if err != nil {
		return data.Profile{}, handleSQLError(err)
	}
	profile.Role = access.Role(role)
	profile.Location = location.Location(loc)
	profile.BaseCurrency = currency.Code(base)
	profile.CurrencyPreferences = stringsToCodes(preferences)
	profile.FeatureAccess = caps
	return profile, nil
}

//go:embed sql/update_profile_feature_access.sql
var updateProfileFeatureAccessQuery string

func (db *DBRepository) SetFeatureAccess(ctx context.Context, id int64, caps access.Capabilities) error {
	tag, err := db.storage.Exec(ctx, updateProfileFeatureAccessQuery, id, caps)
	if err != nil {
		return handleSQLError(err)
	}
	if tag.RowsAffected() == 0 {
		return data.ErrNotFound
	}
	return nil
}
