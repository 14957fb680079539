// Package access resolves what a profile may do from its role, its location
// and the location-scoped rules administrators maintain.
package access

import (
	"context"
	"sync"
	"time"

	"go-marketplace/internal/marketplace/feature"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/pkg/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Rule struct {
	ID            uuid.UUID
	Location      location.Location
	FeatureName   string
	IsEnabled     bool
	Configuration Config
	UpdatedAt     time.Time
}

type RuleStore interface {
	ListByLocation(ctx context.Context, loc location.Location) ([]Rule, error)
}

type LocationRegistry interface {
	Lookup(loc location.Location) (location.Entry, bool)
	AvailableFeaturesFor(loc location.Location) feature.Set
}

type Resolver struct {
	rules     RuleStore
	locations LocationRegistry
	logger    *logging.ZapLogger
}

func NewResolver(rules RuleStore, locations LocationRegistry, logger *logging.ZapLogger) *Resolver {
	return &Resolver{
		rules:     rules,
		locations: locations,
		logger:    logger,
	}
}

// Resolve never fails: unknown roles and unreadable rules yield no capabilities,
// unknown locations are treated as location.Other.
//
// Role defaults are a ceiling. The location's nominal feature set and disabled
// rules can only take capabilities away; enabled rules never add any. ADMIN is
// exempt from location restrictions.
func (r *Resolver) Resolve(ctx context.Context, role Role, loc location.Location) Capabilities {
	defaults, ok := RoleDefaults(role)
	if !ok {
		r.logger.WarnCtx(ctx, "unknown role, failing closed", zap.String("role", string(role)))
		return Capabilities{}
	}
	if role == Admin {
		return defaults
	}
	if _, known := r.locations.Lookup(loc); !known {
		r.logger.DebugCtx(ctx, "unknown location, using fallback bucket", zap.String("location", string(loc)))
		loc = location.Other
	}

	cache := cacheFromContext(ctx)
	if caps, ok := cache.get(role, loc); ok {
		return caps
	}

	caps := defaults
	available := r.locations.AvailableFeaturesFor(loc)
	for _, n := range feature.All() {
		if !available.Has(n) {
			caps.set(n, false)
		}
	}

	rules, err := r.rules.ListByLocation(ctx, loc)
	if err != nil {
		r.logger.ErrorCtx(ctx, "failed to load feature access rules, failing closed",
			zap.String("location", string(loc)), zap.Error(err))
		return Capabilities{}
	}
	for name, rule := range Authoritative(rules) {
		n, ok := feature.Parse(name)
		if !ok || rule.IsEnabled {
			continue
		}
		caps.set(n, false)
	}

	cache.put(role, loc, caps)
	return caps
}

// Authoritative keeps the most recently updated rule per feature name.
func Authoritative(rules []Rule) map[string]Rule {
	res := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		current, ok := res[rule.FeatureName]
		if !ok || rule.UpdatedAt.After(current.UpdatedAt) {
			res[rule.FeatureName] = rule
		}
	}
	return res
}

type contextKey int

const (
	cacheKey contextKey = iota
)

type cacheEntryKey struct {
	role Role
	loc  location.Location
}

type requestCache struct {
	mux     sync.Mutex
	entries map[cacheEntryKey]Capabilities
}

// WithRequestCache scopes resolutions to ctx so repeated checks within one
// request hit the rule store once per (role, location).
func WithRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey, &requestCache{
		entries: make(map[cacheEntryKey]Capabilities),
	})
}

func cacheFromContext(ctx context.Context) *requestCache {
	c, _ := ctx.Value(cacheKey).(*requestCache)
	return c
}

func (c *requestCache) get(role Role, loc location.Location) (Capabilities, bool) {
	if c == nil {
		return Capabilities{}, false
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	caps, ok := c.entries[cacheEntryKey{role: role, loc: loc}]
	return caps, ok
}

func (c *requestCache) put(role Role, loc location.Location, caps Capabilities) {
	if c == nil {
		return
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.entries[cacheEntryKey{role: role, loc: loc}] = caps
}
