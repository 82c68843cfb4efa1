package worker

// email_worker.go
// Processes email jobs from QueueEmail: renders the PDF if it is not there
// yet, mails it as an attachment and moves a draft document to sent.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	DocumentID string `json:"document_id"`
	ToEmail    string `json:"to_email"`
	Message    string `json:"message,omitempty"`
}

// EmailWorker mails rendered documents to customers.
type EmailWorker struct {
	render    *RenderWorker
	documents repository.DocumentRepository
	mailer    *infra.Mailer
	rdb       *redis.Client
}

func NewEmailWorker(render *RenderWorker, documents repository.DocumentRepository, mailer *infra.Mailer, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{render: render, documents: documents, mailer: mailer, rdb: rdb}
}

// Process delivers one document email. The PDF is ensured first so a send
// queued right after creation never races the initial render.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return
	}
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		log.Error().Str("document_id", payload.DocumentID).Msg("email_worker: invalid document_id")
		return
	}

	pdfPath, err := w.render.EnsurePDF(ctx, docID)
	if err != nil {
		log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("email_worker: could not produce PDF")
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, err.Error(), 1)
		return
	}

	doc, err := w.documents.FindByID(ctx, docID)
	if err != nil {
		log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("email_worker: document not found")
		return
	}

	subject := fmt.Sprintf("%s %s", docLabel(doc.Type), doc.DocumentNumber)
	body := payload.Message
	if body == "" {
		body = fmt.Sprintf(
			"Hello %s,\n\nPlease find your %s attached.\nTotal: %s %s\n",
			doc.CustomerName,
			docLabel(doc.Type),
			money.CurrencyPrefix,
			money.FormatCents(doc.Total),
		)
	}

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.mailer.SendDocument(payload.ToEmail, subject, body, pdfPath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("to", payload.ToEmail).
				Msg("email_worker: send attempt failed, retrying")
		}
		return err
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", payload.ToEmail).Msg("email_worker: failed to send after all retries")
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, sendErr.Error(), 3)
		return
	}

	// First successful delivery moves a draft along its lifecycle.
	if doc.Status == model.StatusDraft {
		if err := w.documents.UpdateStatus(ctx, doc.ID, model.StatusSent); err != nil {
			log.Warn().Err(err).Str("document_id", doc.ID.String()).Msg("email_worker: failed to mark document sent")
		}
	}
	log.Info().Str("to", payload.ToEmail).Str("number", doc.DocumentNumber).Msg("email_worker: document sent")
}

func docLabel(t model.DocumentType) string {
	switch t {
	case model.DocQuotation:
		return "Quotation"
	case model.DocReceipt:
		return "Receipt"
	default:
		return "Invoice"
	}
}
