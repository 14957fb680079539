package service

import "errors"

var (
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidRate      = errors.New("exchange rate must be positive")
	ErrAmountOutOfRange = errors.New("converted amount out of range")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflicting record exists")
	ErrNotFound         = errors.New("not found")
)
