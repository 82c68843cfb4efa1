package dto

// All amounts in document DTOs are integer cents; tax_rate is percent x 100
// (600 = 6%). Clients own the conversion to display strings.

// ─── Filter / List ──────────────────────────────────────────────────────────

// DocumentFilter is bound from query string of GET /v1/documents.
type DocumentFilter struct {
	Type   string `form:"type"   validate:"omitempty,oneof=invoice quotation receipt"`
	Status string `form:"status" validate:"omitempty,oneof=draft sent paid"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type DocumentListResponse struct {
	Data  []DocumentResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type DocumentItemRequest struct {
	Description string `json:"description" validate:"required,min=1,max=300"`
	Quantity    int64  `json:"quantity"    validate:"required,min=1"`
	UnitPrice   int64  `json:"unit_price"  validate:"min=0"`
}

type CreateDocumentRequest struct {
	Type          string                `json:"type" validate:"required,oneof=invoice quotation receipt"`
	CustomerName  string                `json:"customer_name" validate:"required,min=1,max=200"`
	CustomerEmail *string               `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone *string               `json:"customer_phone" validate:"omitempty,max=30"`
	Items         []DocumentItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxRate       int64                 `json:"tax_rate" validate:"min=0,max=10000"`
	Notes         *string               `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateDocumentRequest replaces the customer block, items and notes of an
// existing document. Totals are recomputed; number and status are kept.
type UpdateDocumentRequest struct {
	CustomerName  string                `json:"customer_name" validate:"required,min=1,max=200"`
	CustomerEmail *string               `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone *string               `json:"customer_phone" validate:"omitempty,max=30"`
	Items         []DocumentItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxRate       int64                 `json:"tax_rate" validate:"min=0,max=10000"`
	Notes         *string               `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateDocumentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid"`
}

// SendDocumentRequest emails the rendered PDF. ToEmail falls back to the
// document's customer email when omitted.
type SendDocumentRequest struct {
	ToEmail *string `json:"to_email" validate:"omitempty,email"`
	Message *string `json:"message" validate:"omitempty,max=2000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DocumentItemResponse struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Total       int64  `json:"total"`
}

type DocumentResponse struct {
	ID             string                 `json:"id"`
	DocumentNumber string                 `json:"document_number"`
	Type           string                 `json:"type"`
	CustomerName   string                 `json:"customer_name"`
	CustomerEmail  *string                `json:"customer_email,omitempty"`
	CustomerPhone  *string                `json:"customer_phone,omitempty"`
	Items          []DocumentItemResponse `json:"items"`
	Subtotal       int64                  `json:"subtotal"`
	TaxRate        int64                  `json:"tax_rate"`
	TaxAmount      int64                  `json:"tax_amount"`
	Total          int64                  `json:"total"`
	Status         string                 `json:"status"`
	Notes          *string                `json:"notes,omitempty"`
	HasPDF         bool                   `json:"has_pdf"`
	CreatedAt      string                 `json:"created_at"`
}
