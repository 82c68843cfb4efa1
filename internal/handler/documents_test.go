package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/middleware"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDocumentService scripts one method per test; anything a test does
// not expect to be called is left nil and would panic.
type stubDocumentService struct {
	service.DocumentService

	createFn func(ctx context.Context, ownerUserID uuid.UUID, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	getFn    func(ctx context.Context, ownerUserID, docID uuid.UUID) (*dto.DocumentResponse, error)
	listFn   func(ctx context.Context, ownerUserID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error)
	statusFn func(ctx context.Context, ownerUserID, docID uuid.UUID, status model.DocumentStatus) (*dto.DocumentResponse, error)
	pdfFn    func(ctx context.Context, ownerUserID, docID uuid.UUID) (string, string, error)
	sendFn   func(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.SendDocumentRequest) error
}

func (s *stubDocumentService) Create(ctx context.Context, ownerUserID uuid.UUID, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	return s.createFn(ctx, ownerUserID, req)
}

func (s *stubDocumentService) Get(ctx context.Context, ownerUserID, docID uuid.UUID) (*dto.DocumentResponse, error) {
	return s.getFn(ctx, ownerUserID, docID)
}

func (s *stubDocumentService) List(ctx context.Context, ownerUserID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error) {
	return s.listFn(ctx, ownerUserID, filter)
}

func (s *stubDocumentService) UpdateStatus(ctx context.Context, ownerUserID, docID uuid.UUID, status model.DocumentStatus) (*dto.DocumentResponse, error) {
	return s.statusFn(ctx, ownerUserID, docID, status)
}

func (s *stubDocumentService) PDFFile(ctx context.Context, ownerUserID, docID uuid.UUID) (string, string, error) {
	return s.pdfFn(ctx, ownerUserID, docID)
}

func (s *stubDocumentService) Send(ctx context.Context, ownerUserID, docID uuid.UUID, req dto.SendDocumentRequest) error {
	return s.sendFn(ctx, ownerUserID, docID, req)
}

func documentsRouter(svc service.DocumentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewDocumentsHandler(svc)
	docs := r.Group("/v1/documents", middleware.JWTAuth(testSecret))
	docs.POST("", h.Create)
	docs.GET("", h.List)
	docs.GET("/:id", h.Get)
	docs.PUT("/:id", h.Update)
	docs.PATCH("/:id/status", h.UpdateStatus)
	docs.GET("/:id/pdf", h.DownloadPDF)
	docs.POST("/:id/send", h.Send)
	return r
}

func createBody() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Type:         "invoice",
		CustomerName: "John Smith",
		Items: []dto.DocumentItemRequest{
			{Description: "Product A", Quantity: 2, UnitPrice: 5000},
		},
		TaxRate: 600,
	}
}

// ── Tests: create ────────────────────────────────────────────────────────────

func TestCreateDocument_Success(t *testing.T) {
	owner := uuid.New()
	svc := &stubDocumentService{
		createFn: func(_ context.Context, ownerUserID uuid.UUID, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
			assert.Equal(t, owner, ownerUserID, "owner must come from the JWT, not the body")
			assert.Equal(t, "invoice", req.Type)
			return &dto.DocumentResponse{
				ID: uuid.NewString(), DocumentNumber: "INV-2026-0001-X7K2",
				Type: "invoice", Status: "draft", Subtotal: 10000, TaxRate: 600, TaxAmount: 600, Total: 10600,
			}, nil
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, owner.String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents", createBody(), bearer(tok))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INV-2026-0001-X7K2", resp.DocumentNumber)
	assert.Equal(t, int64(10600), resp.Total)
}

func TestCreateDocument_RequiresAuth(t *testing.T) {
	r := documentsRouter(&stubDocumentService{})

	w := doJSON(r, http.MethodPost, "/v1/documents", createBody(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateDocument_QuotaExceeded(t *testing.T) {
	svc := &stubDocumentService{
		createFn: func(context.Context, uuid.UUID, dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
			return nil, service.ErrQuotaExceeded
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents", createBody(), bearer(tok))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "quota_exceeded")
	assert.Contains(t, w.Body.String(), "upgrade")
}

func TestCreateDocument_LineItemError(t *testing.T) {
	svc := &stubDocumentService{
		createFn: func(context.Context, uuid.UUID, dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
			return nil, &money.InvalidLineItemError{Index: 1, Field: "quantity", Reason: "must be at least 1"}
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents", createBody(), bearer(tok))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "must be at least 1", resp.Fields["items[1].quantity"])
}

func TestCreateDocument_MissingItems(t *testing.T) {
	svc := &stubDocumentService{} // createFn nil: must not be reached
	r := documentsRouter(svc)

	body := createBody()
	body.Items = nil
	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents", body, bearer(tok))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Items")
}

// ── Tests: get / list ────────────────────────────────────────────────────────

func TestGetDocument_NotFound(t *testing.T) {
	svc := &stubDocumentService{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (*dto.DocumentResponse, error) {
			return nil, service.ErrDocumentNotFound
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodGet, "/v1/documents/"+uuid.NewString(), nil, bearer(tok))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestGetDocument_BadID(t *testing.T) {
	r := documentsRouter(&stubDocumentService{})

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodGet, "/v1/documents/not-a-uuid", nil, bearer(tok))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid document id")
}

func TestListDocuments_FilterPassthrough(t *testing.T) {
	svc := &stubDocumentService{
		listFn: func(_ context.Context, _ uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error) {
			assert.Equal(t, "quotation", filter.Type)
			assert.Equal(t, 2, filter.Page)
			assert.Equal(t, 10, filter.Limit)
			return &dto.DocumentListResponse{Data: []dto.DocumentResponse{}, Total: 0, Page: 2, Limit: 10}, nil
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodGet, "/v1/documents?type=quotation&page=2&limit=10", nil, bearer(tok))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// ── Tests: status / pdf / send ───────────────────────────────────────────────

func TestUpdateStatus_Paid(t *testing.T) {
	docID := uuid.New()
	svc := &stubDocumentService{
		statusFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID, status model.DocumentStatus) (*dto.DocumentResponse, error) {
			assert.Equal(t, docID, id)
			assert.Equal(t, model.StatusPaid, status)
			return &dto.DocumentResponse{ID: id.String(), Status: string(status)}, nil
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPatch, "/v1/documents/"+docID.String()+"/status",
		dto.UpdateDocumentStatusRequest{Status: "paid"}, bearer(tok))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"paid"`)
}

func TestUpdateStatus_UnknownValue(t *testing.T) {
	r := documentsRouter(&stubDocumentService{})

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPatch, "/v1/documents/"+uuid.NewString()+"/status",
		dto.UpdateDocumentStatusRequest{Status: "archived"}, bearer(tok))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "oneof")
}

func TestDownloadPDF_NotReady(t *testing.T) {
	svc := &stubDocumentService{
		pdfFn: func(context.Context, uuid.UUID, uuid.UUID) (string, string, error) {
			return "", "", service.ErrPDFNotReady
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodGet, "/v1/documents/"+uuid.NewString()+"/pdf", nil, bearer(tok))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "render_unavailable")
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestDownloadPDF_ServesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))

	svc := &stubDocumentService{
		pdfFn: func(context.Context, uuid.UUID, uuid.UUID) (string, string, error) {
			return path, "INV-2026-0001-X7K2.pdf", nil
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodGet, "/v1/documents/"+uuid.NewString()+"/pdf", nil, bearer(tok))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-2026-0001-X7K2.pdf")
	assert.Equal(t, "%PDF-1.4 test", w.Body.String())
}

func TestSendDocument_Queued(t *testing.T) {
	svc := &stubDocumentService{
		sendFn: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, req dto.SendDocumentRequest) error {
			require.NotNil(t, req.ToEmail)
			assert.Equal(t, "customer@example.com", *req.ToEmail)
			return nil
		},
	}
	r := documentsRouter(svc)

	to := "customer@example.com"
	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents/"+uuid.NewString()+"/send",
		dto.SendDocumentRequest{ToEmail: &to}, bearer(tok))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "queued")
}

func TestSendDocument_NoRecipient(t *testing.T) {
	svc := &stubDocumentService{
		sendFn: func(context.Context, uuid.UUID, uuid.UUID, dto.SendDocumentRequest) error {
			return service.ErrNoRecipient
		},
	}
	r := documentsRouter(svc)

	tok := signToken(t, uuid.New().String(), time.Hour)
	w := doJSON(r, http.MethodPost, "/v1/documents/"+uuid.NewString()+"/send",
		dto.SendDocumentRequest{}, bearer(tok))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "to_email")
}
