package dto

// InboundMessageRequest is the payload the channel gateway POSTs for every
// received message. The gateway has already verified the provider
// signature; this service only checks the shared webhook token.
type InboundMessageRequest struct {
	ChannelID string `json:"channel_id" validate:"required,max=100"`
	From      string `json:"from" validate:"required,max=100"`
	Body      string `json:"body" validate:"required"`
	// MessageID is the provider's delivery id; used to drop redeliveries
	MessageID *string `json:"message_id" validate:"omitempty,max=100"`
}

// InboundAckResponse is always returned with HTTP 200 so the provider does
// not retry on business-level rejections. Outcome tells the gateway (and
// log readers) what actually happened.
type InboundAckResponse struct {
	Status         string `json:"status"`
	Outcome        string `json:"outcome"`
	DocumentNumber string `json:"document_number,omitempty"`
}

// ─── Audit log listing ──────────────────────────────────────────────────────

type MessageFilter struct {
	Outcome string `form:"outcome" validate:"omitempty,oneof=received created duplicate no_tenant parse_failed quota_exceeded validation_failed"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type MessageResponse struct {
	ID                 string  `json:"id"`
	ChannelID          string  `json:"channel_id"`
	From               string  `json:"from"`
	RawBody            string  `json:"raw_body"`
	ParsedSuccessfully bool    `json:"parsed_successfully"`
	Outcome            string  `json:"outcome"`
	DerivedDocumentID  *string `json:"derived_document_id,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

type MessageListResponse struct {
	Data  []MessageResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
