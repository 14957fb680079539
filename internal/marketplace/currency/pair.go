package currency

import (
	"fmt"
	"strings"
)

// Pair is a directed currency pair.
type Pair struct {
	From Code
	To   Code
}

func (p Pair) String() string {
	return string(p.From) + ":" + string(p.To)
}

func (p Pair) Inverse() Pair {
	return Pair{From: p.To, To: p.From}
}

// ParsePair accepts "RUB:USD" and "RUB/USD".
func ParsePair(s string) (Pair, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		from, to, ok = strings.Cut(s, "/")
	}
	if !ok {
		return Pair{}, fmt.Errorf("malformed currency pair %q", s)
	}
	fromCode, err := Parse(from)
	if err != nil {
		return Pair{}, err
	}
	toCode, err := Parse(to)
	if err != nil {
		return Pair{}, err
	}
	if fromCode == toCode {
		return Pair{}, fmt.Errorf("currency pair %q has identical legs", s)
	}
	return Pair{From: fromCode, To: toCode}, nil
}

// ParsePairs parses a comma-separated list, skipping blanks and duplicates.
func ParsePairs(s string) ([]Pair, error) {
	seen := make(map[Pair]struct{})
	res := make([]Pair, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := ParsePair(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		res = append(res, p)
	}
	return res, nil
}

// PairsAgainst returns base->c and c->base for every c other than base.
func PairsAgainst(base Code, codes []Code) []Pair {
	res := make([]Pair, 0, 2*len(codes))
	for _, c := range codes {
		if c == base {
			continue
		}
		res = append(res, Pair{From: base, To: c}, Pair{From: c, To: base})
	}
	return res
}
