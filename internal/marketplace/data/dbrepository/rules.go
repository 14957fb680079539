package dbrepository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:embed sql/select_rules_by_location.sql
var selectRulesByLocationQuery string

func (db *DBRepository) ListByLocation(ctx context.Context, loc location.Location) ([]access.Rule, error) {
	rows, err := db.storage.Query(ctx, selectRulesByLocationQuery, string(loc))
	if err != nil {
		return nil, handleSQLError(err)
	}
	return scanRules(rows)
}

//go:embed sql/select_rules.sql
var selectRulesQuery string

func (db *DBRepository) ListRules(ctx context.Context) ([]access.Rule, error) {
	rows, err := db.storage.Query(ctx, selectRulesQuery)
	if err != nil {
		return nil, handleSQLError(err)
	}
	return scanRules(rows)
}

//go:embed sql/select_rule.sql
var selectRuleQuery string

// GetRule returns data.ErrNotFound for an unknown id.
func (db *DBRepository) GetRule(ctx context.Context, id uuid.UUID) (access.Rule, error) {
	rows, err := db.storage.Query(ctx, selectRuleQuery, id)
	if err != nil {
		return access.Rule{}, handleSQLError(err)
	}
	rules, err := scanRules(rows)
	if err != nil {
		return access.Rule{}, err
	}
	if len(rules) == 0 {
		return access.Rule{}, data.ErrNotFound
	}
	return rules[0], nil
}

//go:embed sql/upsert_rule.sql
var upsertRuleQuery string

// UpsertRule inserts or replaces the rule for (location, feature name). The id
// of an existing row is kept and written back to rule.
func (db *DBRepository) UpsertRule(ctx context.Context, rule *access.Rule) error {
	cfg, err := access.MarshalConfig(rule.Configuration)
	if err != nil {
		return err //nolint:wrapcheck // unnecessary
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = utcNow()
	}
	err = db.storage.QueryValue(
		ctx,
		upsertRuleQuery,
		[]any{rule.ID, string(rule.Location), rule.FeatureName, rule.IsEnabled, cfg, rule.UpdatedAt},
		[]any{&rule.ID},
	)
	if err != nil {
		return handleSQLError(err)
	}
	return nil
}

//go:embed sql/update_rule.sql
var updateRuleQuery string

// UpdateRule returns data.ErrNotFound for an unknown id.
func (db *DBRepository) UpdateRule(
	ctx context.Context,
	id uuid.UUID,
	isEnabled bool,
	cfg access.Config,
	updatedAt time.Time,
) (access.Rule, error) {
	rawCfg, err := access.MarshalConfig(cfg)
	if err != nil {
		return access.Rule{}, err //nolint:wrapcheck // unnecessary
	}
	rule := access.Rule{
		ID:            id,
		IsEnabled:     isEnabled,
		Configuration: cfg,
		UpdatedAt:     updatedAt,
	}
	var loc string
	err = db.storage.QueryValue(
		ctx,
		updateRuleQuery,
		[]any{id, isEnabled, rawCfg, updatedAt},
		[]any{&loc, &rule.FeatureName},
	)
	if err != nil {
		return access.Rule{}, handleSQLError(err)
	}
	rule.Location = location.Location(loc)
	return rule, nil
}

func scanRules(rows pgx.Rows) ([]access.Rule, error) {
	defer rows.Close()

	result := make([]access.Rule, 0)
	for rows.Next() {
		var (
			rule   access.Rule
			loc    string
			rawCfg []byte
		)
		err := rows.Scan(&rule.ID, &loc, &rule.FeatureName, &rule.IsEnabled, &rawCfg, &rule.UpdatedAt)
		if err != nil {
			return nil, handleSQLError(err)
		}
		rule.Location = location.Location(loc)
		rule.Configuration, err = access.UnmarshalConfig(rawCfg)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return result, nil
}
