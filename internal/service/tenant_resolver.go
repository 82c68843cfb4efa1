package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"gorm.io/gorm"
)

// TenantResolver maps an inbound message to the company it belongs to.
// Resolution order: exact channel account match first, then a fallback on
// the last ten digits of the sender's phone number. A sender that matches
// nothing is not an error; Resolve returns (nil, nil) and the caller
// decides what an unresolved message means.
type TenantResolver interface {
	Resolve(ctx context.Context, channelID, from string) (*model.Company, error)
}

type tenantResolver struct {
	companies repository.CompanyRepository
}

func NewTenantResolver(companies repository.CompanyRepository) TenantResolver {
	return &tenantResolver{companies: companies}
}

func (r *tenantResolver) Resolve(ctx context.Context, channelID, from string) (*model.Company, error) {
	if channelID != "" {
		company, err := r.companies.FindByChannelID(ctx, channelID)
		if err == nil {
			return company, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	digits := NormalizePhone(from)
	if digits == "" {
		return nil, nil
	}
	company, err := r.companies.FindByPhoneTail(ctx, digits)
	if err == nil {
		return company, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// NormalizePhone reduces a phone-like handle to its digits. Spaces,
// hyphens, parentheses, dots, a leading + and provider prefixes such as
// "whatsapp:" all disappear, so "+60 12-345 6789" and "60123456789"
// normalize to the same string. A handle with no digits normalizes to "".
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
