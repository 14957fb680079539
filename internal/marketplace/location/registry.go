// Package location maps user locations to their default currency, country and
// the features nominally offered there.
package location

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/feature"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
)

type Location string

const (
	Russia  Location = "russia"
	UK      Location = "uk"
	US      Location = "us"
	Germany Location = "germany"
	Other   Location = "other"
)

var enumerated = []Location{Russia, UK, US, Germany, Other}

type Entry struct {
	Location        Location
	Country         string
	DefaultCurrency currency.Code
	Features        feature.Set
}

type Registry struct {
	entries map[Location]Entry
}

// NewRegistry returns the built-in table. fallback is the default currency of
// the "other" bucket.
func NewRegistry(fallback currency.Code) (*Registry, error) {
	if !fallback.Valid() {
		return nil, fmt.Errorf("fallback currency: %w: %q", currency.ErrUnknownCurrency, fallback)
	}
	core := []feature.Name{feature.CanBuy, feature.CanList, feature.CanSell}
	return &Registry{
		entries: map[Location]Entry{
			Russia: {
				Location:        Russia,
				Country:         "RU",
				DefaultCurrency: currency.RUB,
				Features:        feature.NewSet(append(core, feature.CanCourier)...),
			},
			UK: {Location: UK, Country: "GB", DefaultCurrency: currency.GBP, Features: feature.NewSet(core...)},
			US: {Location: US, Country: "US", DefaultCurrency: currency.USD, Features: feature.NewSet(core...)},
			Germany: {
				Location:        Germany,
				Country:         "DE",
				DefaultCurrency: currency.EUR,
				Features:        feature.NewSet(core...),
			},
			Other: {
				Location:        Other,
				DefaultCurrency: fallback,
				Features:        feature.NewSet(feature.CanBuy, feature.CanList),
			},
		},
	}, nil
}

// Parse returns ErrUnknownLocation for anything outside the enumerated tags.
func Parse(s string) (Location, error) {
	loc := Location(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range enumerated {
		if l == loc {
			return loc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
}

// Normalize maps unknown locations to Other.
func Normalize(s string) Location {
	loc, err := Parse(s)
	if err != nil {
		return Other
	}
	return loc
}

func (r *Registry) entry(loc Location) Entry {
	if e, ok := r.entries[loc]; ok {
		return e
	}
	return r.entries[Other]
}

func (r *Registry) DefaultCurrencyFor(loc Location) currency.Code {
	return r.entry(loc).DefaultCurrency
}

// AvailableFeaturesFor returns a copy of the nominal feature set of loc.
func (r *Registry) AvailableFeaturesFor(loc Location) feature.Set {
	src := r.entry(loc).Features
	res := make(feature.Set, len(src))
	for n := range src {
		res[n] = struct{}{}
	}
	return res
}

func (r *Registry) CountryFor(loc Location) string {
	return r.entry(loc).Country
}

func (r *Registry) Lookup(loc Location) (Entry, bool) {
	e, ok := r.entries[loc]
	return e, ok
}

func (r *Registry) Entries() []Entry {
	res := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Location < res[j].Location })
	return res
}

// Currencies returns the distinct default currencies of all locations.
func (r *Registry) Currencies() []currency.Code {
	seen := make(map[currency.Code]struct{})
	res := make([]currency.Code, 0, len(r.entries))
	for _, e := range r.Entries() {
		if _, ok := seen[e.DefaultCurrency]; ok {
			continue
		}
		seen[e.DefaultCurrency] = struct{}{}
		res = append(res, e.DefaultCurrency)
	}
	return res
}

type overridesFile struct {
	Locations map[string]struct {
		Country         *string  `yaml:"country"`
		DefaultCurrency *string  `yaml:"default_currency"`
		Features        []string `yaml:"features"`
	} `yaml:"locations"`
}

// LoadOverrides applies a YAML file of per-location overrides:
//
//	locations:
//	  uk:
//	    default_currency: GBP
//	    features: [canBuy, canList, canSell, canCourier]
func (r *Registry) LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read locations file: %w", err)
	}
	return r.ApplyOverrides(raw)
}

func (r *Registry) ApplyOverrides(raw []byte) error {
	var file overridesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse locations file: %w", err)
	}
	updated := make(map[Location]Entry, len(r.entries))
	for k, v := range r.entries {
		updated[k] = v
	}
	for name, override := range file.Locations {
		loc, err := Parse(name)
		if err != nil {
			return err
		}
		e := updated[loc]
		if override.Country != nil {
			e.Country = strings.ToUpper(*override.Country)
		}
		if override.DefaultCurrency != nil {
			code, err := currency.Parse(*override.DefaultCurrency)
			if err != nil {
				return fmt.Errorf("location %s: %w", loc, err)
			}
			e.DefaultCurrency = code
		}
		if override.Features != nil {
			features := make(feature.Set, len(override.Features))
			for _, f := range override.Features {
				n, ok := feature.Parse(f)
				if !ok {
					return fmt.Errorf("location %s: unknown feature %q", loc, f)
				}
				features[n] = struct{}{}
			}
			e.Features = features
		}
		updated[loc] = e
	}
	r.entries = updated
	return nil
}
