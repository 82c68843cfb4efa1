package parser

import (
	"fmt"
	"strings"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
)

// FormatConfirmation renders the reply sent back over the channel after a
// document is created. The layout round-trips: feeding the result back
// through Parse yields the same kind, items and totals, which keeps the
// reply honest about what was stored. Item lines use the dash/x form and
// the summary lines avoid ":" so they can never be re-read as items.
func FormatConfirmation(d *Draft, number string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", kindTitle(d.Kind), number)
	fmt.Fprintf(&b, "Customer: %s\n", d.CustomerName)
	if d.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.CustomerPhone)
	}
	b.WriteString("\n")

	for _, it := range d.Items {
		fmt.Fprintf(&b, "%s - %d x %s %s\n", it.Description, it.Quantity, money.CurrencyPrefix, money.FormatCents(it.UnitPrice))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Subtotal %s %s\n", money.CurrencyPrefix, money.FormatCents(d.Subtotal))
	if d.TaxAmount > 0 {
		fmt.Fprintf(&b, "Tax: %s%% (%s %s)\n", money.FormatBasisPercent(d.TaxRate), money.CurrencyPrefix, money.FormatCents(d.TaxAmount))
	}
	fmt.Fprintf(&b, "Total %s %s", money.CurrencyPrefix, money.FormatCents(d.Total))

	if d.Notes != "" {
		fmt.Fprintf(&b, "\nNote: %s", strings.ReplaceAll(d.Notes, "\n", " "))
	}
	return b.String()
}

func kindTitle(k model.DocumentType) string {
	switch k {
	case model.DocQuotation:
		return "Quotation"
	case model.DocReceipt:
		return "Receipt"
	default:
		return "Invoice"
	}
}
