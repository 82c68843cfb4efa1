package model

import (
	"time"

	"github.com/google/uuid"
)

// Inbound message outcomes. "received" is the initial value; every message
// ends on exactly one of the others.
const (
	OutcomeReceived         = "received"
	OutcomeCreated          = "created"
	OutcomeDuplicate        = "duplicate"
	OutcomeNoTenant         = "no_tenant"
	OutcomeParseFailed      = "parse_failed"
	OutcomeQuotaExceeded    = "quota_exceeded"
	OutcomeValidationFailed = "validation_failed"
)

// InboundMessage is the audit record for every message the webhook accepts.
// The row is written before any parsing happens and updated at most once to
// attach the outcome; rejected messages keep their row.
type InboundMessage struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// CompanyID stays nil when the sender could not be mapped to a tenant
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	ChannelID string     `gorm:"type:varchar(100);not null"`
	// FromIdentifier is the sender handle as the provider reported it,
	// before any phone normalization
	FromIdentifier string `gorm:"type:varchar(100);not null;index"`
	// ProviderMessageID is the provider's delivery id, used for dedup
	ProviderMessageID  *string `gorm:"type:varchar(100);column:provider_message_id"`
	RawBody            string  `gorm:"type:text;not null"`
	ParsedSuccessfully bool    `gorm:"not null;default:false"`
	Outcome            string  `gorm:"type:varchar(24);not null;default:'received'"`
	DerivedDocumentID  *uuid.UUID `gorm:"type:uuid;column:derived_document_id"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
