package worker

// render_worker.go
// Processes PDF render jobs from QueueRender. Fetches the document and its
// company, pulls the logo (bounded, degradable) and writes the PDF. A
// render is queued on every create and content update, and again on demand
// when a download finds no file.

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RenderJobPayload is the job envelope sent to QueueRender.
type RenderJobPayload struct {
	DocumentID string `json:"document_id"`
}

// RenderWorker renders document PDFs and records their paths.
type RenderWorker struct {
	documents repository.DocumentRepository
	companies repository.CompanyRepository
	logos     *infra.LogoFetcher
	rdb       *redis.Client
	pdfRoot   string
}

func NewRenderWorker(
	documents repository.DocumentRepository,
	companies repository.CompanyRepository,
	logos *infra.LogoFetcher,
	rdb *redis.Client,
	pdfRoot string,
) *RenderWorker {
	return &RenderWorker{
		documents: documents,
		companies: companies,
		logos:     logos,
		rdb:       rdb,
		pdfRoot:   pdfRoot,
	}
}

// Process renders one document, retrying transient failures with backoff.
// A job that still fails lands in the DLQ.
func (w *RenderWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload RenderJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("render_worker: invalid payload")
		return
	}
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		log.Error().Str("document_id", payload.DocumentID).Msg("render_worker: invalid document_id")
		return
	}

	err = withRetry(ctx, 3, func(attempt int) error {
		_, err := w.EnsurePDF(ctx, docID)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("document_id", payload.DocumentID).
				Msg("render_worker: render attempt failed, retrying")
		}
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("render_worker: render failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueRender, "render", raw, err.Error(), 3)
	}
}

// EnsurePDF renders the document unless a current file already exists, and
// returns the absolute path of the file. Also used by the email worker so
// a send never races the initial render.
func (w *RenderWorker) EnsurePDF(ctx context.Context, docID uuid.UUID) (string, error) {
	doc, err := w.documents.FindByID(ctx, docID)
	if err != nil {
		return "", err
	}
	if doc.PDFPath != nil {
		full := filepath.Join(w.pdfRoot, *doc.PDFPath)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}

	company, err := w.companies.FindByID(ctx, doc.CompanyID)
	if err != nil {
		return "", err
	}

	var logo *infra.LogoImage
	if w.logos != nil && company.LogoURL != nil && *company.LogoURL != "" {
		logo, err = w.logos.Fetch(ctx, *company.LogoURL)
		if err != nil {
			// A missing logo never blocks the document.
			log.Warn().
				Err(err).
				Str("document_id", doc.ID.String()).
				Msg("render_worker: logo unavailable, rendering without it")
			logo = nil
		}
	}

	fileName, err := infra.RenderDocumentPDF(doc, company, logo, w.pdfRoot)
	if err != nil {
		return "", err
	}
	if err := w.documents.UpdatePDFPath(ctx, doc.ID, fileName); err != nil {
		return "", err
	}

	log.Info().
		Str("document_id", doc.ID.String()).
		Str("number", doc.DocumentNumber).
		Str("pdf", fileName).
		Msg("render_worker: PDF rendered")
	return filepath.Join(w.pdfRoot, fileName), nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// 1s, 2s … (exponential backoff)
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
