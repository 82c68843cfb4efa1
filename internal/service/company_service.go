package service

import (
	"context"
	"errors"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrChannelTaken    = errors.New("channel account is already linked to another company")
)

type CompanyService interface {
	GetOrCreate(ctx context.Context, ownerUserID uuid.UUID, ownerName string) (*dto.CompanyResponse, error)
	Update(ctx context.Context, ownerUserID uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
}

type companyService struct {
	companies repository.CompanyRepository
}

func NewCompanyService(companies repository.CompanyRepository) CompanyService {
	return &companyService{companies: companies}
}

// companyForOwner loads the caller's company and translates a missing row
// into ErrCompanyNotFound. Shared by every owner-scoped service method.
func companyForOwner(ctx context.Context, companies repository.CompanyRepository, ownerUserID uuid.UUID) (*model.Company, error) {
	company, err := companies.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

// GetOrCreate returns the owner's company, creating a bare starter-plan
// one on first access so a fresh account can start issuing documents
// without a separate setup step.
func (s *companyService) GetOrCreate(ctx context.Context, ownerUserID uuid.UUID, ownerName string) (*dto.CompanyResponse, error) {
	company, err := s.companies.FindByOwner(ctx, ownerUserID)
	if err == nil {
		return companyToResponse(company), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	company = &model.Company{
		OwnerUserID:      ownerUserID,
		Name:             ownerName,
		SubscriptionPlan: model.PlanStarter,
		BillingActive:    true,
		UsageResetAt:     time.Now().UTC(),
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return companyToResponse(company), nil
}

func (s *companyService) Update(ctx context.Context, ownerUserID uuid.UUID, req dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := companyForOwner(ctx, s.companies, ownerUserID)
	if err != nil {
		return nil, err
	}

	// A channel account can route messages to only one company.
	if req.InboundChannelID != nil && *req.InboundChannelID != "" {
		existing, err := s.companies.FindByChannelID(ctx, *req.InboundChannelID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil && existing.ID != company.ID {
			return nil, ErrChannelTaken
		}
	}

	company.Name = req.Name
	company.Address = req.Address
	company.Email = req.Email
	company.LogoURL = req.LogoURL
	company.InboundChannelID = req.InboundChannelID
	company.BillingCustomerRef = req.BillingCustomerRef
	if req.Phone != nil {
		// Stored normalized so the inbound phone fallback can compare
		// suffixes directly.
		digits := NormalizePhone(*req.Phone)
		company.Phone = &digits
	} else {
		company.Phone = nil
	}

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, err
	}
	return companyToResponse(company), nil
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func companyToResponse(c *model.Company) *dto.CompanyResponse {
	limit := model.LimitFor(c.SubscriptionPlan)
	return &dto.CompanyResponse{
		ID:                     c.ID.String(),
		Name:                   c.Name,
		Address:                c.Address,
		Phone:                  c.Phone,
		Email:                  c.Email,
		LogoURL:                c.LogoURL,
		InboundChannelID:       c.InboundChannelID,
		SubscriptionPlan:       string(c.SubscriptionPlan),
		BillingActive:          c.BillingActive,
		DocumentsUsedThisMonth: c.DocumentsUsedThisMonth,
		DocumentLimit:          limit.N,
		Unlimited:              limit.Unlimited,
	}
}
