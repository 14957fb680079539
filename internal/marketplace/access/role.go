package access

import (
	"strings"

	"go-marketplace/internal/marketplace/feature"
)

type Role string

const (
	User    Role = "USER"
	Vendor  Role = "VENDOR"
	Courier Role = "COURIER"
	Admin   Role = "ADMIN"
)

// ParseRole is case-insensitive. ok is false for anything else.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case User, Vendor, Courier, Admin:
		return role, true
	}
	return "", false
}

// Capabilities is the feature access map of a profile.
type Capabilities struct {
	CanBuy     bool `json:"canBuy"`
	CanList    bool `json:"canList"`
	CanSell    bool `json:"canSell"`
	CanCourier bool `json:"canCourier"`
	CanAdmin   bool `json:"canAdmin"`
}

func (c Capabilities) Has(n feature.Name) bool {
	switch n {
	case feature.CanBuy:
		return c.CanBuy
	case feature.CanList:
		return c.CanList
	case feature.CanSell:
		return c.CanSell
	case feature.CanCourier:
		return c.CanCourier
	case feature.CanAdmin:
		return c.CanAdmin
	}
	return false
}

func (c *Capabilities) set(n feature.Name, v bool) {
	switch n {
	case feature.CanBuy:
		c.CanBuy = v
	case feature.CanList:
		c.CanList = v
	case feature.CanSell:
		c.CanSell = v
	case feature.CanCourier:
		c.CanCourier = v
	case feature.CanAdmin:
		c.CanAdmin = v
	}
}

// Granted lists the capabilities set to true.
func (c Capabilities) Granted() []feature.Name {
	res := make([]feature.Name, 0, len(feature.All()))
	for _, n := range feature.All() {
		if c.Has(n) {
			res = append(res, n)
		}
	}
	return res
}

func allCapabilities() Capabilities {
	return Capabilities{CanBuy: true, CanList: true, CanSell: true, CanCourier: true, CanAdmin: true}
}

// RoleDefaults is the ceiling of what a role may do. Unknown roles get nothing.
func RoleDefaults(role Role) (Capabilities, bool) {
	switch role {
	case User:
		return Capabilities{CanBuy: true, CanList: true}, true
	case Vendor:
		return Capabilities{CanBuy: true, CanList: true, CanSell: true}, true
	case Courier:
		return Capabilities{CanBuy: true, CanList: true, CanCourier: true}, true
	case Admin:
		return allCapabilities(), true
	}
	return Capabilities{}, false
}
