package service

// billing_service.go
// Applies subscription lifecycle events from the billing provider to the
// company record. Events arrive already verified by the billing gateway;
// this service only has to map prices to plans and keep the stored plan in
// sync. Unknown customers and unknown event types are ignored on purpose:
// billing must never take the document pipeline down.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

type BillingService interface {
	ApplyEvent(ctx context.Context, event stripe.Event) error
}

type billingService struct {
	companies repository.CompanyRepository
	// priceToPlan maps billing price ids to subscription plans
	priceToPlan map[string]model.Plan
}

func NewBillingService(companies repository.CompanyRepository, priceToPlan map[string]model.Plan) BillingService {
	return &billingService{companies: companies, priceToPlan: priceToPlan}
}

func (s *billingService) ApplyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.applySubscription(ctx, event)
	case "customer.subscription.deleted":
		return s.dropSubscription(ctx, event)
	default:
		log.Debug().Str("type", event.Type).Msg("billing: ignoring event type")
		return nil
	}
}

func (s *billingService) applySubscription(ctx context.Context, event stripe.Event) error {
	sub, company, err := s.subscriptionCompany(ctx, event)
	if err != nil || company == nil {
		return err
	}

	plan := s.planForSubscription(sub)
	if plan == "" {
		log.Warn().
			Str("subscription", sub.ID).
			Str("company_id", company.ID.String()).
			Msg("billing: no known price on subscription, keeping current plan")
	} else {
		company.SubscriptionPlan = plan
	}
	company.BillingSubscriptionRef = &sub.ID
	company.BillingActive = sub.Status == stripe.SubscriptionStatusActive ||
		sub.Status == stripe.SubscriptionStatusTrialing

	if err := s.companies.Update(ctx, company); err != nil {
		return err
	}
	log.Info().
		Str("company_id", company.ID.String()).
		Str("plan", string(company.SubscriptionPlan)).
		Bool("billing_active", company.BillingActive).
		Msg("billing: subscription applied")
	return nil
}

// dropSubscription moves the company back to the free starter tier.
func (s *billingService) dropSubscription(ctx context.Context, event stripe.Event) error {
	sub, company, err := s.subscriptionCompany(ctx, event)
	if err != nil || company == nil {
		return err
	}

	company.SubscriptionPlan = model.PlanStarter
	company.BillingSubscriptionRef = nil
	company.BillingActive = true

	if err := s.companies.Update(ctx, company); err != nil {
		return err
	}
	log.Info().
		Str("company_id", company.ID.String()).
		Str("subscription", sub.ID).
		Msg("billing: subscription cancelled, back on starter")
	return nil
}

// subscriptionCompany decodes the event payload and resolves the company
// it belongs to. A customer that no company references yet is not an
// error; the link is made later through the company profile.
func (s *billingService) subscriptionCompany(ctx context.Context, event stripe.Event) (*stripe.Subscription, *model.Company, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, nil, fmt.Errorf("billing: bad subscription payload: %w", err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil, nil, errors.New("billing: subscription event without customer")
	}

	company, err := s.companies.FindByBillingCustomerRef(ctx, sub.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().
				Str("customer", sub.Customer.ID).
				Str("type", event.Type).
				Msg("billing: event for customer no company references")
			return &sub, nil, nil
		}
		return nil, nil, err
	}
	return &sub, company, nil
}

func (s *billingService) planForSubscription(sub *stripe.Subscription) model.Plan {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item.Price == nil {
			continue
		}
		if plan, ok := s.priceToPlan[item.Price.ID]; ok {
			return plan
		}
	}
	return ""
}
