// Package feature names the capabilities that roles and locations gate.
package feature

import "sort"

type Name string

const (
	CanBuy     Name = "canBuy"
	CanList    Name = "canList"
	CanSell    Name = "canSell"
	CanCourier Name = "canCourier"
	CanAdmin   Name = "canAdmin"
)

var all = []Name{CanBuy, CanList, CanSell, CanCourier, CanAdmin}

func All() []Name {
	res := make([]Name, len(all))
	copy(res, all)
	return res
}

// Parse reports whether s is one of the gated capabilities. Rules may name
// other features; those are stored but never gate anything.
func Parse(s string) (Name, bool) {
	for _, n := range all {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

type Set map[Name]struct{}

func NewSet(names ...Name) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the members in a stable order.
func (s Set) Sorted() []Name {
	res := make([]Name, 0, len(s))
	for n := range s {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
