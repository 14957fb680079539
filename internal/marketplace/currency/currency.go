// Package currency defines the supported currency codes, integer money amounts
// and the display rules used to format them.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
)

type Code string

const (
	RUB Code = "RUB"
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	CAD Code = "CAD"
	AUD Code = "AUD"
	CHF Code = "CHF"
	JPY Code = "JPY"
	CNY Code = "CNY"
	KRW Code = "KRW"
	INR Code = "INR"
	BRL Code = "BRL"
	SEK Code = "SEK"
	NOK Code = "NOK"
	DKK Code = "DKK"
	PLN Code = "PLN"
	CZK Code = "CZK"
	HUF Code = "HUF"
	TRY Code = "TRY"
	ZAR Code = "ZAR"
	UAH Code = "UAH"
	KZT Code = "KZT"
	BYN Code = "BYN"
)

type SymbolPosition int

const (
	Prefix SymbolPosition = iota
	Suffix
)

// DisplayRules describe how amounts of one currency are rendered.
type DisplayRules struct {
	Symbol             string
	Position           SymbolPosition
	SpaceAfterSymbol   bool
	MinorUnits         int32
	ThousandsSeparator string
	DecimalSeparator   string
}

type Info struct {
	Code  Code
	Name  string
	Rules DisplayRules
}

var (
	dotComma   = DisplayRules{ThousandsSeparator: ",", DecimalSeparator: "."}
	spaceComma = DisplayRules{ThousandsSeparator: " ", DecimalSeparator: ","}
	dotDecimal = DisplayRules{ThousandsSeparator: ".", DecimalSeparator: ","}
)

func rules(base DisplayRules, symbol string, pos SymbolPosition, minor int32) DisplayRules {
	base.Symbol = symbol
	base.Position = pos
	base.MinorUnits = minor
	base.SpaceAfterSymbol = pos == Suffix
	return base
}

// table is built once and never mutated.
var table = map[Code]Info{
	RUB: {Code: RUB, Name: "Russian Ruble", Rules: rules(spaceComma, "₽", Suffix, 2)},
	USD: {Code: USD, Name: "US Dollar", Rules: rules(dotComma, "$", Prefix, 2)},
	EUR: {Code: EUR, Name: "Euro", Rules: rules(dotDecimal, "€", Suffix, 2)},
	GBP: {Code: GBP, Name: "Pound Sterling", Rules: rules(dotComma, "£", Prefix, 2)},
	CAD: {Code: CAD, Name: "Canadian Dollar", Rules: rules(dotComma, "C$", Prefix, 2)},
	AUD: {Code: AUD, Name: "Australian Dollar", Rules: rules(dotComma, "A$", Prefix, 2)},
	CHF: {Code: CHF, Name: "Swiss Franc", Rules: DisplayRules{
		Symbol: "CHF", Position: Prefix, SpaceAfterSymbol: true, MinorUnits: 2,
		ThousandsSeparator: "'", DecimalSeparator: ".",
	}},
	JPY: {Code: JPY, Name: "Japanese Yen", Rules: rules(dotComma, "¥", Prefix, 0)},
	CNY: {Code: CNY, Name: "Chinese Yuan", Rules: rules(dotComma, "CN¥", Prefix, 2)},
	KRW: {Code: KRW, Name: "South Korean Won", Rules: rules(dotComma, "₩", Prefix, 0)},
	INR: {Code: INR, Name: "Indian Rupee", Rules: rules(dotComma, "₹", Prefix, 2)},
	BRL: {Code: BRL, Name: "Brazilian Real", Rules: DisplayRules{
		Symbol: "R$", Position: Prefix, SpaceAfterSymbol: true, MinorUnits: 2,
		ThousandsSeparator: ".", DecimalSeparator: ",",
	}},
	SEK: {Code: SEK, Name: "Swedish Krona", Rules: rules(spaceComma, "kr", Suffix, 2)},
	NOK: {Code: NOK, Name: "Norwegian Krone", Rules: rules(spaceComma, "kr", Suffix, 2)},
	DKK: {Code: DKK, Name: "Danish Krone", Rules: rules(dotDecimal, "kr.", Suffix, 2)},
	PLN: {Code: PLN, Name: "Polish Zloty", Rules: rules(spaceComma, "zł", Suffix, 2)},
	CZK: {Code: CZK, Name: "Czech Koruna", Rules: rules(spaceComma, "Kč", Suffix, 2)},
	HUF: {Code: HUF, Name: "Hungarian Forint", Rules: rules(spaceComma, "Ft", Suffix, 2)},
	TRY: {Code: TRY, Name: "Turkish Lira", Rules: rules(dotDecimal, "₺", Prefix, 2)},
	ZAR: {Code: ZAR, Name: "South African Rand", Rules: DisplayRules{
		Symbol: "R", Position: Prefix, SpaceAfterSymbol: false, MinorUnits: 2,
		ThousandsSeparator: " ", DecimalSeparator: ".",
	}},
	UAH: {Code: UAH, Name: "Ukrainian Hryvnia", Rules: rules(spaceComma, "₴", Suffix, 2)},
	KZT: {Code: KZT, Name: "Kazakhstani Tenge", Rules: rules(spaceComma, "₸", Suffix, 2)},
	BYN: {Code: BYN, Name: "Belarusian Ruble", Rules: rules(spaceComma, "Br", Suffix, 2)},
}

// Parse normalizes s and checks that it names a supported currency.
func Parse(s string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := table[code]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
	}
	return code, nil
}

func (c Code) Valid() bool {
	_, ok := table[c]
	return ok
}

func (c Code) String() string {
	return string(c)
}

func Lookup(c Code) (Info, bool) {
	info, ok := table[c]
	return info, ok
}

// MinorUnits returns the number of decimal digits of c, 2 for unknown codes.
func (c Code) MinorUnits() int32 {
	if info, ok := table[c]; ok {
		return info.Rules.MinorUnits
	}
	return 2
}

// All returns every supported currency ordered by code.
func All() []Info {
	res := make([]Info, 0, len(table))
	for _, info := range table {
		res = append(res, info)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Code < res[j].Code
	})
	return res
}
