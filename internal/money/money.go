// Package money holds every monetary rule in the system. Amounts are
// integer cents (int64) end to end; tax rates are percent x 100 (6% = 600,
// 6.5% = 650). Floats never touch money paths. shopspring/decimal is used
// only at the string boundary, to convert user-entered decimal amounts to
// cents and back.
package money

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix labels every rendered amount. Single-currency product.
const CurrencyPrefix = "RM"

var (
	ErrEmptyDocument  = errors.New("document has no line items")
	ErrInvalidTaxRate = errors.New("tax rate must not be negative")
)

// InvalidLineItemError reports which line failed validation and why.
type InvalidLineItemError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	return fmt.Sprintf("line item %d: %s %s", e.Index+1, e.Field, e.Reason)
}

// Line is one billable line before persistence. UnitPrice is cents.
type Line struct {
	Description string
	Quantity    int64
	UnitPrice   int64
}

// Total is always Quantity * UnitPrice, in cents.
func (l Line) Total() int64 {
	return l.Quantity * l.UnitPrice
}

// Breakdown is the computed money summary of a document, in cents.
type Breakdown struct {
	Subtotal  int64
	TaxAmount int64
	Total     int64
}

// Compute validates lines and derives the document totals:
//
//	subtotal  = sum of line totals
//	taxAmount = round(subtotal * taxRate / 10000), half up
//	total     = subtotal + taxAmount
func Compute(lines []Line, taxRate int64) (Breakdown, error) {
	if len(lines) == 0 {
		return Breakdown{}, ErrEmptyDocument
	}
	if taxRate < 0 {
		return Breakdown{}, ErrInvalidTaxRate
	}
	var subtotal int64
	for i, l := range lines {
		if l.Description == "" {
			return Breakdown{}, &InvalidLineItemError{Index: i, Field: "description", Reason: "must not be empty"}
		}
		if l.Quantity < 1 {
			return Breakdown{}, &InvalidLineItemError{Index: i, Field: "quantity", Reason: "must be at least 1"}
		}
		if l.UnitPrice < 0 {
			return Breakdown{}, &InvalidLineItemError{Index: i, Field: "unit_price", Reason: "must not be negative"}
		}
		subtotal += l.Total()
	}
	tax := TaxOn(subtotal, taxRate)
	return Breakdown{Subtotal: subtotal, TaxAmount: tax, Total: subtotal + tax}, nil
}

// TaxOn applies a basis-unit rate to a cent amount, rounding half up.
// Both arguments must be non-negative.
func TaxOn(subtotal, taxRate int64) int64 {
	return (subtotal*taxRate + 5000) / 10000
}

// ParseAmount converts a decimal amount string ("50", "7.50") to cents,
// rounding half up beyond two decimals. Negative amounts are rejected.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// ParsePercent converts a percentage string ("6", "6.5") to basis units
// (percent x 100), rounding half up.
func ParsePercent(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid percentage %q: must not be negative", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatCents renders cents as a two-decimal amount string: 5000 -> "50.00".
func FormatCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}

// FormatBasisPercent renders a basis-unit rate as a human percentage
// without trailing zeros: 600 -> "6", 650 -> "6.5".
func FormatBasisPercent(b int64) string {
	switch {
	case b%100 == 0:
		return strconv.FormatInt(b/100, 10)
	case b%10 == 0:
		return fmt.Sprintf("%d.%d", b/100, (b%100)/10)
	default:
		return fmt.Sprintf("%d.%02d", b/100, b%100)
	}
}
