package dto

type UpdateCompanyRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Email   *string `json:"email" validate:"omitempty,email"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url,max=500"`
	// InboundChannelID links the company to its messaging-channel account
	InboundChannelID *string `json:"inbound_channel_id" validate:"omitempty,max=100"`
	// BillingCustomerRef ties the company to the billing provider customer
	BillingCustomerRef *string `json:"billing_customer_ref" validate:"omitempty,max=100"`
}

type CompanyResponse struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Address                *string `json:"address,omitempty"`
	Phone                  *string `json:"phone,omitempty"`
	Email                  *string `json:"email,omitempty"`
	LogoURL                *string `json:"logo_url,omitempty"`
	InboundChannelID       *string `json:"inbound_channel_id,omitempty"`
	SubscriptionPlan       string  `json:"subscription_plan"`
	BillingActive          bool    `json:"billing_active"`
	DocumentsUsedThisMonth int64   `json:"documents_used_this_month"`
	// DocumentLimit is 0 when the plan is unlimited (see Unlimited flag)
	DocumentLimit int64 `json:"document_limit"`
	Unlimited     bool  `json:"unlimited"`
}
