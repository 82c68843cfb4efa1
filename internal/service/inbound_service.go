package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/parser"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MessageDeduper remembers provider message ids briefly so webhook
// redeliveries do not create a second document.
type MessageDeduper interface {
	// FirstSeen records the id and reports whether this was its first
	// sighting. An empty id always counts as first.
	FirstSeen(ctx context.Context, id string) (bool, error)
	// Forget releases the id so the provider's retry is reprocessed after
	// a failure on our side.
	Forget(ctx context.Context, id string)
}

// helpReply is sent back when a message cannot be read as a document.
const helpReply = "Sorry, I could not read that as a document. Send one line per item, for example:\n" +
	"Customer: John Smith\n" +
	"Product A - 2 x RM 50\n" +
	"Tax: 6%"

type InboundService interface {
	// HandleMessage runs the whole inbound pipeline. Business rejections
	// (unknown sender, unreadable message, quota) come back as ack
	// outcomes, not errors; an error means the message was not durably
	// recorded and the provider should redeliver.
	HandleMessage(ctx context.Context, req dto.InboundMessageRequest) (*dto.InboundAckResponse, error)
	ListMessages(ctx context.Context, ownerUserID uuid.UUID, filter dto.MessageFilter) (*dto.MessageListResponse, error)
}

type inboundService struct {
	messages   repository.MessageRepository
	companies  repository.CompanyRepository
	resolver   TenantResolver
	documents  DocumentService
	deduper    MessageDeduper
	dispatcher *worker.Dispatcher
}

func NewInboundService(
	messages repository.MessageRepository,
	companies repository.CompanyRepository,
	resolver TenantResolver,
	documents DocumentService,
	deduper MessageDeduper,
	dispatcher *worker.Dispatcher,
) InboundService {
	return &inboundService{
		messages:   messages,
		companies:  companies,
		resolver:   resolver,
		documents:  documents,
		deduper:    deduper,
		dispatcher: dispatcher,
	}
}

// ── HandleMessage ────────────────────────────────────────────────────────────
// Pipeline:
//  1. Drop redeliveries (provider message id already seen)
//  2. Write the audit row before anything can fail; every accepted
//     message leaves a trace whatever happens next
//  3. Resolve sender to a company; unknown senders end at no_tenant
//  4. Parse; unreadable messages end at parse_failed plus a help reply
//  5. Create the document; quota and validation rejections keep the
//     audit row and answer the sender
//  6. Attach the outcome and reply with the confirmation

func (s *inboundService) HandleMessage(ctx context.Context, req dto.InboundMessageRequest) (*dto.InboundAckResponse, error) {
	if s.deduper != nil && req.MessageID != nil && *req.MessageID != "" {
		first, err := s.deduper.FirstSeen(ctx, *req.MessageID)
		if err != nil {
			// Dedup store down: keep taking messages, accept the small
			// risk of a duplicate document.
			log.Warn().Err(err).Msg("inbound: dedup check failed, continuing")
		} else if !first {
			log.Info().Str("provider_message_id", *req.MessageID).Msg("inbound: duplicate delivery dropped")
			return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeDuplicate}, nil
		}
	}

	msg := &model.InboundMessage{
		ChannelID:         req.ChannelID,
		FromIdentifier:    req.From,
		ProviderMessageID: req.MessageID,
		RawBody:           req.Body,
		Outcome:           model.OutcomeReceived,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		// The DB-level dedup index catches redeliveries the Redis check
		// missed; those are duplicates, not failures.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Info().Str("channel_id", req.ChannelID).Msg("inbound: duplicate delivery caught by audit index")
			return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeDuplicate}, nil
		}
		// No audit row, no processing. Release the dedup claim so the
		// provider's retry is not swallowed as a duplicate.
		s.release(ctx, req.MessageID)
		return nil, err
	}

	company, err := s.resolver.Resolve(ctx, msg.ChannelID, msg.FromIdentifier)
	if err != nil {
		s.release(ctx, req.MessageID)
		return nil, err
	}
	if company == nil {
		log.Info().
			Str("channel_id", msg.ChannelID).
			Str("from", msg.FromIdentifier).
			Msg("inbound: sender matches no company")
		s.finish(ctx, msg, nil, false, model.OutcomeNoTenant, nil)
		return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeNoTenant}, nil
	}

	draft := parser.Parse(msg.RawBody)
	if draft == nil {
		log.Info().
			Str("message_id", msg.ID.String()).
			Str("company_id", company.ID.String()).
			Msg("inbound: message did not parse as a document")
		s.finish(ctx, msg, &company.ID, false, model.OutcomeParseFailed, nil)
		s.reply(ctx, msg, helpReply)
		return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeParseFailed}, nil
	}

	doc, err := s.documents.CreateFromDraft(ctx, company, draft)
	if err != nil {
		switch {
		case errors.Is(err, ErrQuotaExceeded):
			log.Info().
				Str("company_id", company.ID.String()).
				Str("plan", string(company.SubscriptionPlan)).
				Msg("inbound: document quota exceeded")
			s.finish(ctx, msg, &company.ID, true, model.OutcomeQuotaExceeded, nil)
			s.reply(ctx, msg, quotaReply(company))
			return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeQuotaExceeded}, nil
		case IsValidationError(err):
			log.Info().
				Str("company_id", company.ID.String()).
				Err(err).
				Msg("inbound: parsed draft failed validation")
			s.finish(ctx, msg, &company.ID, true, model.OutcomeValidationFailed, nil)
			s.reply(ctx, msg, fmt.Sprintf("The document could not be created: %v.", err))
			return &dto.InboundAckResponse{Status: "ok", Outcome: model.OutcomeValidationFailed}, nil
		default:
			s.release(ctx, req.MessageID)
			return nil, err
		}
	}

	s.finish(ctx, msg, &company.ID, true, model.OutcomeCreated, &doc.ID)
	s.reply(ctx, msg, parser.FormatConfirmation(draft, doc.DocumentNumber))
	return &dto.InboundAckResponse{
		Status:         "ok",
		Outcome:        model.OutcomeCreated,
		DocumentNumber: doc.DocumentNumber,
	}, nil
}

func (s *inboundService) ListMessages(ctx context.Context, ownerUserID uuid.UUID, filter dto.MessageFilter) (*dto.MessageListResponse, error) {
	company, err := companyForOwner(ctx, s.companies, ownerUserID)
	if err != nil {
		return nil, err
	}
	msgs, total, err := s.messages.List(ctx, company.ID, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		data = append(data, *messageToResponse(&msgs[i]))
	}
	return &dto.MessageListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// finish attaches the terminal outcome to the audit row. Failing to record
// the outcome does not undo the processing, so it only logs.
func (s *inboundService) finish(ctx context.Context, msg *model.InboundMessage, companyID *uuid.UUID, parsed bool, outcome string, docID *uuid.UUID) {
	if err := s.messages.AttachOutcome(ctx, msg.ID, companyID, parsed, outcome, docID); err != nil {
		log.Error().
			Err(err).
			Str("message_id", msg.ID.String()).
			Str("outcome", outcome).
			Msg("inbound: failed to record outcome")
	}
}

func (s *inboundService) reply(ctx context.Context, msg *model.InboundMessage, body string) {
	if s.dispatcher == nil || body == "" {
		return
	}
	payload := worker.ReplyJobPayload{
		ChannelID: msg.ChannelID,
		To:        msg.FromIdentifier,
		Body:      body,
	}
	if err := s.dispatcher.EnqueueReply(ctx, payload); err != nil {
		log.Warn().Err(err).Str("to", msg.FromIdentifier).Msg("inbound: failed to enqueue reply")
	}
}

func (s *inboundService) release(ctx context.Context, messageID *string) {
	if s.deduper != nil && messageID != nil && *messageID != "" {
		s.deduper.Forget(ctx, *messageID)
	}
}

func quotaReply(c *model.Company) string {
	limit := model.LimitFor(c.SubscriptionPlan)
	return fmt.Sprintf(
		"You have used all %d documents included in the %s plan this month. Upgrade your plan to keep creating documents.",
		limit.N, c.SubscriptionPlan,
	)
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func messageToResponse(m *model.InboundMessage) *dto.MessageResponse {
	resp := &dto.MessageResponse{
		ID:                 m.ID.String(),
		ChannelID:          m.ChannelID,
		From:               m.FromIdentifier,
		RawBody:            m.RawBody,
		ParsedSuccessfully: m.ParsedSuccessfully,
		Outcome:            m.Outcome,
		CreatedAt:          m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.DerivedDocumentID != nil {
		id := m.DerivedDocumentID.String()
		resp.DerivedDocumentID = &id
	}
	return resp
}
