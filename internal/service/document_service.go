package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/numbering"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/parser"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrQuotaExceeded means the monthly document allowance is used up.
	// It is a business rejection, never an internal failure.
	ErrQuotaExceeded    = errors.New("monthly document quota exceeded")
	ErrDocumentNotFound = errors.New("document not found")
	// ErrPDFNotReady means the PDF has not been rendered yet; a render has
	// been queued and the caller should retry shortly.
	ErrPDFNotReady = errors.New("pdf not rendered yet")
	ErrNoRecipient = errors.New("document has no recipient email")
)

type DocumentService interface {
	Create(ctx context.Context, ownerUserID uuid.UUID, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	// CreateFromDraft is the chat entry point: the company has already
	// been resolved and the draft already parsed.
	CreateFromDraft(ctx context.Context, company *model.Company, draft *parser.Draft) (*model.Document, error)
	Get(ctx context.Context, ownerUserID, docID uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, ownerUserID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error)
	UpdateContent(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.UpdateDocumentRequest) (*dto.DocumentResponse, error)
	UpdateStatus(ctx context.Context, ownerUserID, docID uuid.UUID, status model.DocumentStatus) (*dto.DocumentResponse, error)
	// PDFFile returns the absolute path of the rendered PDF and the
	// download name to serve it under, or ErrPDFNotReady after queueing
	// a render.
	PDFFile(ctx context.Context, ownerUserID, docID uuid.UUID) (path, name string, err error)
	Send(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.SendDocumentRequest) error
}

type documentService struct {
	companies  repository.CompanyRepository
	documents  repository.DocumentRepository
	dispatcher *worker.Dispatcher
	pdfRoot    string
}

func NewDocumentService(
	companies repository.CompanyRepository,
	documents repository.DocumentRepository,
	dispatcher *worker.Dispatcher,
	pdfRoot string,
) DocumentService {
	return &documentService{
		companies:  companies,
		documents:  documents,
		dispatcher: dispatcher,
		pdfRoot:    pdfRoot,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// IsValidationError reports whether err is a document-content problem (bad
// line item, negative tax rate, no items) as opposed to an internal one.
func IsValidationError(err error) bool {
	var lineErr *money.InvalidLineItemError
	return errors.Is(err, money.ErrEmptyDocument) ||
		errors.Is(err, money.ErrInvalidTaxRate) ||
		errors.As(err, &lineErr)
}

// documentContent carries everything needed to assemble a document,
// whichever surface it came from.
type documentContent struct {
	kind          model.DocumentType
	customerName  string
	customerEmail *string
	customerPhone *string
	lines         []money.Line
	taxRate       int64
	notes         *string
}

// ── Assembly ─────────────────────────────────────────────────────────────────
// One path for both surfaces:
//  1. Compute and validate totals (pre-flight, outside TX)
//  2. Fast quota pre-check on the loaded counter
//  3. BEGIN TX: lock (company, kind), count, generate number, insert
//     document + items, increment usage
//  4. Authoritative quota check on the post-increment counter; over the
//     limit rolls everything back
//  5. COMMIT, then queue the PDF render

func (s *documentService) assemble(ctx context.Context, company *model.Company, content documentContent) (*model.Document, error) {
	breakdown, err := money.Compute(content.lines, content.taxRate)
	if err != nil {
		return nil, err
	}

	limit := model.LimitFor(company.SubscriptionPlan)
	if !limit.Allows(company.DocumentsUsedThisMonth) {
		return nil, ErrQuotaExceeded
	}

	items := make([]model.DocumentItem, len(content.lines))
	for i, l := range content.lines {
		items[i] = model.DocumentItem{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total(),
			Position:    i,
		}
	}

	doc := &model.Document{
		CompanyID:     company.ID,
		Type:          content.kind,
		CustomerName:  content.customerName,
		CustomerEmail: content.customerEmail,
		CustomerPhone: content.customerPhone,
		Subtotal:      breakdown.Subtotal,
		TaxRate:       content.taxRate,
		TaxAmount:     breakdown.TaxAmount,
		Total:         breakdown.Total,
		Status:        model.StatusDraft,
		Notes:         content.notes,
		Items:         items,
	}

	txErr := runTx(ctx, s.documents.DB(), func(tx *gorm.DB) error {
		if err := s.documents.LockKind(ctx, tx, company.ID, content.kind); err != nil {
			return err
		}
		count, err := s.documents.CountByKind(ctx, tx, company.ID, content.kind)
		if err != nil {
			return err
		}
		doc.DocumentNumber = numbering.Generate(content.kind, time.Now(), count+1)

		if err := s.documents.Create(ctx, tx, doc); err != nil {
			return err
		}

		used, err := s.companies.IncrementUsage(ctx, tx, company.ID)
		if err != nil {
			return err
		}
		if limit.Exceeded(used) {
			// Rolls back the document and the counter together.
			return ErrQuotaExceeded
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Queue the render right away so the file is usually there by the
	// first download.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueRender(ctx, worker.RenderJobPayload{DocumentID: doc.ID.String()})
	}

	return doc, nil
}

func (s *documentService) Create(ctx context.Context, ownerUserID uuid.UUID, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	company, err := companyForOwner(ctx, s.companies, ownerUserID)
	if err != nil {
		return nil, err
	}

	lines := make([]money.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = money.Line{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	doc, err := s.assemble(ctx, company, documentContent{
		kind:          model.DocumentType(req.Type),
		customerName:  req.CustomerName,
		customerEmail: req.CustomerEmail,
		customerPhone: req.CustomerPhone,
		lines:         lines,
		taxRate:       req.TaxRate,
		notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return documentToResponse(doc), nil
}

func (s *documentService) CreateFromDraft(ctx context.Context, company *model.Company, draft *parser.Draft) (*model.Document, error) {
	var phone *string
	if draft.CustomerPhone != "" {
		phone = &draft.CustomerPhone
	}
	var notes *string
	if draft.Notes != "" {
		notes = &draft.Notes
	}
	return s.assemble(ctx, company, documentContent{
		kind:          draft.Kind,
		customerName:  draft.CustomerName,
		customerPhone: phone,
		lines:         draft.Items,
		taxRate:       draft.TaxRate,
		notes:         notes,
	})
}

// ownedDocument fetches a document and proves ownership. Cross-tenant
// lookups read as missing documents on purpose.
func (s *documentService) ownedDocument(ctx context.Context, ownerUserID, docID uuid.UUID) (*model.Document, *model.Company, error) {
	company, err := companyForOwner(ctx, s.companies, ownerUserID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	if doc.CompanyID != company.ID {
		return nil, nil, ErrDocumentNotFound
	}
	return doc, company, nil
}

func (s *documentService) Get(ctx context.Context, ownerUserID, docID uuid.UUID) (*dto.DocumentResponse, error) {
	doc, _, err := s.ownedDocument(ctx, ownerUserID, docID)
	if err != nil {
		return nil, err
	}
	return documentToResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, ownerUserID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error) {
	company, err := companyForOwner(ctx, s.companies, ownerUserID)
	if err != nil {
		return nil, err
	}
	docs, total, err := s.documents.List(ctx, company.ID, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		data = append(data, *documentToResponse(&docs[i]))
	}
	return &dto.DocumentListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// UpdateContent replaces the customer block, items and notes. Totals are
// recomputed from the new items; number and status stay. The stored PDF no
// longer matches, so its path is cleared and a fresh render queued.
func (s *documentService) UpdateContent(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	doc, _, err := s.ownedDocument(ctx, ownerUserID, docID)
	if err != nil {
		return nil, err
	}

	lines := make([]money.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = money.Line{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	breakdown, err := money.Compute(lines, req.TaxRate)
	if err != nil {
		return nil, err
	}

	doc.CustomerName = req.CustomerName
	doc.CustomerEmail = req.CustomerEmail
	doc.CustomerPhone = req.CustomerPhone
	doc.Subtotal = breakdown.Subtotal
	doc.TaxRate = req.TaxRate
	doc.TaxAmount = breakdown.TaxAmount
	doc.Total = breakdown.Total
	doc.Notes = req.Notes
	doc.PDFPath = nil
	doc.Items = make([]model.DocumentItem, len(lines))
	for i, l := range lines {
		doc.Items[i] = model.DocumentItem{
			DocumentID:  doc.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total(),
			Position:    i,
		}
	}

	txErr := runTx(ctx, s.documents.DB(), func(tx *gorm.DB) error {
		return s.documents.ReplaceContent(ctx, tx, doc)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueRender(ctx, worker.RenderJobPayload{DocumentID: doc.ID.String()})
	}
	return documentToResponse(doc), nil
}

func (s *documentService) UpdateStatus(ctx context.Context, ownerUserID, docID uuid.UUID, status model.DocumentStatus) (*dto.DocumentResponse, error) {
	doc, _, err := s.ownedDocument(ctx, ownerUserID, docID)
	if err != nil {
		return nil, err
	}
	if err := s.documents.UpdateStatus(ctx, doc.ID, status); err != nil {
		return nil, err
	}
	doc.Status = status
	return documentToResponse(doc), nil
}

func (s *documentService) PDFFile(ctx context.Context, ownerUserID, docID uuid.UUID) (string, string, error) {
	doc, _, err := s.ownedDocument(ctx, ownerUserID, docID)
	if err != nil {
		return "", "", err
	}

	if doc.PDFPath != nil {
		full := filepath.Join(s.pdfRoot, *doc.PDFPath)
		if _, err := os.Stat(full); err == nil {
			return full, doc.DocumentNumber + ".pdf", nil
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueRender(ctx, worker.RenderJobPayload{DocumentID: doc.ID.String()})
	}
	return "", "", ErrPDFNotReady
}

// Send queues the document for email delivery. The recipient is the
// explicit to_email, falling back to the document's customer email.
func (s *documentService) Send(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.SendDocumentRequest) error {
	doc, _, err := s.ownedDocument(ctx, ownerUserID, docID)
	if err != nil {
		return err
	}

	to := ""
	if req.ToEmail != nil && *req.ToEmail != "" {
		to = *req.ToEmail
	} else if doc.CustomerEmail != nil {
		to = *doc.CustomerEmail
	}
	if to == "" {
		return ErrNoRecipient
	}

	payload := worker.EmailJobPayload{
		DocumentID: doc.ID.String(),
		ToEmail:    to,
	}
	if req.Message != nil {
		payload.Message = *req.Message
	}
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.EnqueueEmail(ctx, payload)
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func documentToResponse(d *model.Document) *dto.DocumentResponse {
	items := make([]dto.DocumentItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.DocumentItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	return &dto.DocumentResponse{
		ID:             d.ID.String(),
		DocumentNumber: d.DocumentNumber,
		Type:           string(d.Type),
		CustomerName:   d.CustomerName,
		CustomerEmail:  d.CustomerEmail,
		CustomerPhone:  d.CustomerPhone,
		Items:          items,
		Subtotal:       d.Subtotal,
		TaxRate:        d.TaxRate,
		TaxAmount:      d.TaxAmount,
		Total:          d.Total,
		Status:         string(d.Status),
		Notes:          d.Notes,
		HasPDF:         d.PDFPath != nil,
		CreatedAt:      d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
