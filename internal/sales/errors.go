package sales

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by Service wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation failed")
	ErrUpstreamFetch = errors.New("failed to fetch sales data")
	ErrUpstreamWrite = errors.New("failed to write sales data")
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrEmptyID is returned when trying to store a sale with an empty ID.
var ErrEmptyID = errors.New("empty sale ID")

var (
	ErrInvalidAmount            = errors.New("amount must be greater than zero with at most two decimal places")
	ErrNoOutstandingSales       = errors.New("no unpaid sales found for this customer")
	ErrAmountExceedsOutstanding = errors.New("amount exceeds the customer's outstanding balance")
	ErrCustomerRequired         = errors.New("customer name is required for credit sales")
	ErrInvalidPaymentType       = errors.New("invalid payment type")
	ErrEmptySale                = errors.New("sale must contain at least one item")
	ErrInvalidItem              = errors.New("invalid sale item")
	ErrSaleHasPayments          = errors.New("sale has recorded payments")
)

func validationError(cause error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrValidation, cause)
	}
	return fmt.Errorf("%w: %w: %s", ErrValidation, cause, fmt.Sprintf(format, args...))
}

func fetchError(err error) error {
	if errors.Is(err, ErrUpstreamFetch) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
}

func writeError(err error) error {
	if errors.Is(err, ErrUpstreamWrite) || errors.Is(err, ErrUpstreamFetch) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamWrite, err)
}
