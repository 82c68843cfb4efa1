package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType selects the numbering prefix and the PDF title.
type DocumentType string

const (
	DocInvoice   DocumentType = "invoice"
	DocQuotation DocumentType = "quotation"
	DocReceipt   DocumentType = "receipt"
)

// DocumentStatus lifecycle: draft -> sent -> paid. Transitions happen
// through explicit user actions (the status endpoint, emailing a draft),
// never as a side effect of reads.
type DocumentStatus string

const (
	StatusDraft DocumentStatus = "draft"
	StatusSent  DocumentStatus = "sent"
	StatusPaid  DocumentStatus = "paid"
)

// Document is a generated invoice, quotation or receipt. All monetary
// amounts are integer cents; TaxRate is percent x 100 (6% = 600).
// Totals are computed once at assembly and never silently recomputed.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_documents_company_type,priority:1;uniqueIndex:uni_documents_number,priority:1"`
	Type      DocumentType `gorm:"type:varchar(16);not null;index:idx_documents_company_type,priority:2;uniqueIndex:uni_documents_number,priority:2"`
	// DocumentNumber format: PREFIX-YEAR-SEQ-TOKEN, e.g. INV-2026-0012-K7Q2
	DocumentNumber string `gorm:"type:varchar(40);not null;uniqueIndex:uni_documents_number,priority:3"`
	CustomerName   string `gorm:"not null"`
	CustomerEmail  *string
	CustomerPhone  *string `gorm:"type:varchar(30)"`
	Subtotal       int64   `gorm:"not null"`
	TaxRate        int64   `gorm:"not null;default:0"`
	TaxAmount      int64   `gorm:"not null;default:0"`
	Total          int64   `gorm:"not null"`
	Status         DocumentStatus `gorm:"type:varchar(12);not null;default:'draft'"`
	Notes          *string        `gorm:"type:text"`
	// PDFPath is relative to PDF_STORAGE_PATH; set only after a successful render
	PDFPath   *string `gorm:"column:pdf_path"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []DocumentItem `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// DocumentItem is one line of a document. Total is persisted, not derived,
// so the stored row always satisfies Total == Quantity * UnitPrice.
type DocumentItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"not null"`
	Quantity    int64     `gorm:"not null"`
	UnitPrice   int64     `gorm:"not null"`
	Total       int64     `gorm:"not null"`
	// Position preserves the order lines appeared in the source message/form
	Position int `gorm:"not null;default:0"`
}
