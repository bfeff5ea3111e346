package domain

import "errors"

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrEditConflict            = errors.New("edit conflict")
	ErrInvalidItems            = errors.New("invalid items")
	ErrProviderFailure         = errors.New("payment provider failure")
	ErrMissingCheckoutURL      = errors.New("no checkout URL received")
	ErrUnknownCategory         = errors.New("unknown product category")
	ErrUnknownOption           = errors.New("unknown product option")
	ErrIncompleteConfiguration = errors.New("configuration is incomplete")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrCheckoutInProgress      = errors.New("checkout is already in progress")
)
