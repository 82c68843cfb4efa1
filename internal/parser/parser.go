// Package parser turns free-form chat messages into document drafts.
//
// The grammar is deliberately heuristic: small-business owners type these
// messages on a phone. A message needs at least two non-empty lines, a
// customer name (explicit or first-line fallback) and at least one line
// item; anything that cannot be read that way is a parse failure, reported
// as a nil draft rather than an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
)

// Draft is a parsed message before it enters the assembly pipeline.
// Amounts are cents, TaxRate is percent x 100.
type Draft struct {
	Kind          model.DocumentType
	CustomerName  string
	CustomerPhone string
	Notes         string
	Items         []money.Line
	TaxRate       int64
	Subtotal      int64
	TaxAmount     int64
	Total         int64
}

// Line-item patterns, tried in this order; first match wins. The order is
// a behavioral contract, not an optimization.
//
//	reItemQtyPrice: "Product A - 2 x RM 50"   (also "x" desc sep, "@" price sep)
//	reItemColumns:  "Product A 2 50"
//	reItemQtyFirst: "2 x Product A 50"
//	reItemNoQty:    "Service - 100" / "Consultation: RM 250" (qty 1)
var (
	reItemQtyPrice = regexp.MustCompile(`(?i)^(.+?)\s*[-x]\s*(\d+)\s*[@x]\s*(?:RM\s*)?(\d+(?:\.\d+)?)$`)
	reItemColumns  = regexp.MustCompile(`(?i)^(.+?)\s+(\d+)\s+(?:RM\s*)?(\d+(?:\.\d+)?)$`)
	reItemQtyFirst = regexp.MustCompile(`(?i)^(\d+)\s*x\s*(.+?)\s+(?:RM\s*)?(\d+(?:\.\d+)?)$`)
	reItemNoQty    = regexp.MustCompile(`(?i)^(.+?)\s*[-:]\s*(?:RM\s*)?(\d+(?:\.\d+)?)$`)
	reFirstNumber  = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Parse extracts a document draft from a raw message body. It returns nil
// when the message cannot be read as a document; it never panics and never
// returns a partial draft.
func Parse(body string) *Draft {
	lines := splitLines(body)
	if len(lines) < 2 {
		return nil
	}

	d := &Draft{Kind: detectKind(body)}
	for i, line := range lines {
		if key, value, ok := splitMeta(line); ok {
			switch key {
			case "customer", "name", "to":
				d.CustomerName = value
				continue
			case "phone", "tel":
				d.CustomerPhone = value
				continue
			case "tax":
				// First number on the line is the rate: "Tax: 6%" -> 600.
				if m := reFirstNumber.FindString(line); m != "" {
					if rate, err := money.ParsePercent(m); err == nil {
						d.TaxRate = rate
					}
				}
				continue
			case "note", "notes":
				if d.Notes == "" {
					d.Notes = value
				} else {
					d.Notes += "\n" + value
				}
				continue
			}
		}
		if item, ok := extractItem(line); ok {
			d.Items = append(d.Items, item)
			continue
		}
		// A first line that reads as nothing else is the customer name.
		if i == 0 && d.CustomerName == "" {
			d.CustomerName = line
		}
	}

	if d.CustomerName == "" || len(d.Items) == 0 {
		return nil
	}
	b, err := money.Compute(d.Items, d.TaxRate)
	if err != nil {
		return nil
	}
	d.Subtotal = b.Subtotal
	d.TaxAmount = b.TaxAmount
	d.Total = b.Total
	return d
}

func splitLines(body string) []string {
	var out []string
	for _, raw := range strings.Split(body, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// detectKind scans the whole message. Quotation keywords win over receipt
// when both appear; everything else is an invoice.
func detectKind(body string) model.DocumentType {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "quotation") || strings.Contains(lower, "quote"):
		return model.DocQuotation
	case strings.Contains(lower, "receipt"):
		return model.DocReceipt
	default:
		return model.DocInvoice
	}
}

// splitMeta splits a "Key: value" line on the first colon only, so colons
// inside the value survive.
func splitMeta(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:idx])), strings.TrimSpace(line[idx+1:]), true
}

func extractItem(line string) (money.Line, bool) {
	if m := reItemQtyPrice.FindStringSubmatch(line); m != nil {
		return buildLine(m[1], m[2], m[3])
	}
	if m := reItemColumns.FindStringSubmatch(line); m != nil {
		return buildLine(m[1], m[2], m[3])
	}
	if m := reItemQtyFirst.FindStringSubmatch(line); m != nil {
		return buildLine(m[2], m[1], m[3])
	}
	if m := reItemNoQty.FindStringSubmatch(line); m != nil {
		return buildLine(m[1], "1", m[2])
	}
	return money.Line{}, false
}

func buildLine(desc, qty, price string) (money.Line, bool) {
	q, err := strconv.ParseInt(qty, 10, 64)
	if err != nil || q < 1 {
		return money.Line{}, false
	}
	cents, err := money.ParseAmount(price)
	if err != nil {
		return money.Line{}, false
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return money.Line{}, false
	}
	return money.Line{Description: desc, Quantity: q, UnitPrice: cents}, true
}
