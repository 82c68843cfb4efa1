package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant. Exactly one per owner user; created lazily the
// first time the owner touches an authenticated company endpoint.
// SubscriptionPlan: "starter" | "pro" | "business"
type Company struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	Address     *string
	// Phone is stored normalized (digits only) so the inbound fallback
	// match can compare suffixes directly
	Phone   *string `gorm:"type:varchar(20);index"`
	Email   *string
	LogoURL *string `gorm:"column:logo_url"`
	// InboundChannelID is the messaging-channel account linked to this
	// company; exact match takes priority over the phone fallback
	InboundChannelID       *string `gorm:"uniqueIndex;column:inbound_channel_id"`
	SubscriptionPlan       Plan    `gorm:"type:varchar(20);not null;default:'starter'"`
	BillingCustomerRef     *string `gorm:"column:billing_customer_ref;index"`
	BillingSubscriptionRef *string `gorm:"column:billing_subscription_ref"`
	BillingActive          bool    `gorm:"not null;default:true"`
	DocumentsUsedThisMonth int64   `gorm:"not null;default:0"`
	UsageResetAt           time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
