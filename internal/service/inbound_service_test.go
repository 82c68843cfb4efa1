package service

// inbound_service_test.go
// The chat pipeline end to end against in-memory stubs: audit-row-first
// recording, tenant resolution, parse and quota rejections, webhook
// redelivery dedup, and the redeliver-on-failure contract.

import (
	"context"
	"errors"
	"testing"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/parser"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory MessageRepository stub ─────────────────────────────────────────

type stubMessageRepo struct {
	messages map[uuid.UUID]*model.InboundMessage
	order    []uuid.UUID
	// createErr makes the next Create fail, simulating a DB outage or the
	// dedup index firing.
	createErr error
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{messages: make(map[uuid.UUID]*model.InboundMessage)}
}

func (r *stubMessageRepo) Create(_ context.Context, m *model.InboundMessage) error {
	if r.createErr != nil {
		return r.createErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cloned := *m
	r.messages[m.ID] = &cloned
	r.order = append(r.order, m.ID)
	return nil
}

func (r *stubMessageRepo) AttachOutcome(_ context.Context, id uuid.UUID, companyID *uuid.UUID, parsed bool, outcome string, documentID *uuid.UUID) error {
	m, ok := r.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.CompanyID = companyID
	m.ParsedSuccessfully = parsed
	m.Outcome = outcome
	m.DerivedDocumentID = documentID
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InboundMessage, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubMessageRepo) List(_ context.Context, companyID uuid.UUID, filter dto.MessageFilter) ([]model.InboundMessage, int64, error) {
	var out []model.InboundMessage
	for _, id := range r.order {
		m := r.messages[id]
		if m.CompanyID == nil || *m.CompanyID != companyID {
			continue
		}
		if filter.Outcome != "" && m.Outcome != filter.Outcome {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

// single returns the only recorded message; fails the test otherwise.
func (r *stubMessageRepo) single(t *testing.T) *model.InboundMessage {
	t.Helper()
	require.Len(t, r.messages, 1)
	return r.messages[r.order[0]]
}

// compile-time interface check
var _ repository.MessageRepository = (*stubMessageRepo)(nil)

// ── In-memory deduper stub ───────────────────────────────────────────────────

type stubDeduper struct {
	seen        map[string]bool
	forgetCalls []string
	failErr     error
}

func newStubDeduper() *stubDeduper {
	return &stubDeduper{seen: make(map[string]bool)}
}

func (d *stubDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	if d.failErr != nil {
		return false, d.failErr
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *stubDeduper) Forget(_ context.Context, id string) {
	delete(d.seen, id)
	d.forgetCalls = append(d.forgetCalls, id)
}

var _ MessageDeduper = (*stubDeduper)(nil)

// ── fixture ──────────────────────────────────────────────────────────────────

type inboundFixture struct {
	companies *stubCompanyRepo
	documents *stubDocumentRepo
	messages  *stubMessageRepo
	deduper   *stubDeduper
	svc       InboundService
	company   *model.Company
}

// newInboundFixture wires the real parser and document service onto stub
// storage, with one company listening on channel "wa-1".
func newInboundFixture(t *testing.T, plan model.Plan, used int64) *inboundFixture {
	t.Helper()
	companies := newStubCompanyRepo()
	documents := newStubDocumentRepo()
	messages := newStubMessageRepo()
	deduper := newStubDeduper()

	channel := "wa-1"
	phone := "60123456789"
	company := companies.add(&model.Company{
		OwnerUserID:            uuid.New(),
		Name:                   "Kedai Maju",
		Phone:                  &phone,
		InboundChannelID:       &channel,
		SubscriptionPlan:       plan,
		BillingActive:          true,
		DocumentsUsedThisMonth: used,
	})

	docSvc := NewDocumentService(companies, documents, nil, t.TempDir())
	resolver := NewTenantResolver(companies)
	svc := NewInboundService(messages, companies, resolver, docSvc, deduper, nil)

	return &inboundFixture{
		companies: companies,
		documents: documents,
		messages:  messages,
		deduper:   deduper,
		svc:       svc,
		company:   company,
	}
}

const invoiceBody = "Customer: John Smith\n" +
	"Product A - 2 x RM 50\n" +
	"Service B - 1 x RM 100\n" +
	"Tax: 6%"

func inboundReq(messageID string) dto.InboundMessageRequest {
	req := dto.InboundMessageRequest{
		ChannelID: "wa-1",
		From:      "whatsapp:+60 12-345 6789",
		Body:      invoiceBody,
	}
	if messageID != "" {
		req.MessageID = &messageID
	}
	return req
}

// ── HandleMessage ────────────────────────────────────────────────────────────

func TestHandleMessage_ValidInvoiceCreatesDocument(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	ack, err := f.svc.HandleMessage(context.Background(), inboundReq("m-1"))

	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, model.OutcomeCreated, ack.Outcome)
	assert.NotEmpty(t, ack.DocumentNumber)

	// Audit row carries the full trace.
	msg := f.messages.single(t)
	assert.Equal(t, model.OutcomeCreated, msg.Outcome)
	assert.True(t, msg.ParsedSuccessfully)
	require.NotNil(t, msg.CompanyID)
	assert.Equal(t, f.company.ID, *msg.CompanyID)
	require.NotNil(t, msg.DerivedDocumentID)

	// The document itself has the parsed totals.
	doc := f.documents.docs[*msg.DerivedDocumentID]
	require.NotNil(t, doc)
	assert.Equal(t, "John Smith", doc.CustomerName)
	assert.Equal(t, int64(20000), doc.Subtotal)
	assert.Equal(t, int64(600), doc.TaxRate)
	assert.Equal(t, int64(1200), doc.TaxAmount)
	assert.Equal(t, int64(21200), doc.Total)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, int64(10000), doc.Items[0].Total)
	assert.Equal(t, int64(10000), doc.Items[1].Total)
}

func TestHandleMessage_UnreadableBodyParseFailed(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	req := inboundReq("m-2")
	req.Body = "Hello!\nAre you open tomorrow?"
	ack, err := f.svc.HandleMessage(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeParseFailed, ack.Outcome)
	assert.Empty(t, ack.DocumentNumber)

	msg := f.messages.single(t)
	assert.Equal(t, model.OutcomeParseFailed, msg.Outcome)
	assert.False(t, msg.ParsedSuccessfully)
	assert.Nil(t, msg.DerivedDocumentID)
	// Rejected messages keep their audit row and company attribution.
	require.NotNil(t, msg.CompanyID)
	assert.Empty(t, f.documents.docs)
}

func TestHandleMessage_UnknownSenderNoTenant(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	req := inboundReq("m-3")
	req.ChannelID = "wa-other"
	req.From = "whatsapp:+44 20 7946 0000"
	ack, err := f.svc.HandleMessage(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoTenant, ack.Outcome)

	msg := f.messages.single(t)
	assert.Equal(t, model.OutcomeNoTenant, msg.Outcome)
	assert.Nil(t, msg.CompanyID)
	assert.Empty(t, f.documents.docs)
}

func TestHandleMessage_QuotaAtLimit(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 10)

	ack, err := f.svc.HandleMessage(context.Background(), inboundReq("m-4"))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeQuotaExceeded, ack.Outcome)

	msg := f.messages.single(t)
	assert.Equal(t, model.OutcomeQuotaExceeded, msg.Outcome)
	// Parsing succeeded; creation was denied. Distinguishable from a
	// parse failure.
	assert.True(t, msg.ParsedSuccessfully)
	assert.Nil(t, msg.DerivedDocumentID)
	assert.Empty(t, f.documents.docs)
}

func TestHandleMessage_RedeliveryDropped(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	first, err := f.svc.HandleMessage(context.Background(), inboundReq("m-5"))
	require.NoError(t, err)
	require.Equal(t, model.OutcomeCreated, first.Outcome)

	second, err := f.svc.HandleMessage(context.Background(), inboundReq("m-5"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeDuplicate, second.Outcome)

	// One audit row, one document.
	assert.Len(t, f.messages.messages, 1)
	assert.Len(t, f.documents.docs, 1)
}

func TestHandleMessage_AuditIndexCatchesDuplicate(t *testing.T) {
	// The Redis check missed (different pod, expired key); the DB unique
	// index on (channel_id, provider_message_id) fires instead.
	f := newInboundFixture(t, model.PlanStarter, 0)
	f.messages.createErr = gorm.ErrDuplicatedKey

	ack, err := f.svc.HandleMessage(context.Background(), inboundReq("m-6"))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeDuplicate, ack.Outcome)
	assert.Empty(t, f.documents.docs)
}

func TestHandleMessage_PersistFailureAsksForRedelivery(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)
	f.messages.createErr = errors.New("connection refused")

	_, err := f.svc.HandleMessage(context.Background(), inboundReq("m-7"))

	// No audit row means a hard error; the provider must retry, so the
	// dedup claim has to be released.
	require.Error(t, err)
	assert.Equal(t, []string{"m-7"}, f.deduper.forgetCalls)
}

func TestHandleMessage_DedupStoreDownStillProcesses(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)
	f.deduper.failErr = errors.New("redis: connection pool timeout")

	ack, err := f.svc.HandleMessage(context.Background(), inboundReq("m-8"))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCreated, ack.Outcome)
}

func TestHandleMessage_NoMessageIDSkipsDedup(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	// Without a provider id both deliveries are processed; at-most-once
	// then depends on the provider supplying ids.
	first, err := f.svc.HandleMessage(context.Background(), inboundReq(""))
	require.NoError(t, err)
	second, err := f.svc.HandleMessage(context.Background(), inboundReq(""))
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeCreated, first.Outcome)
	assert.Equal(t, model.OutcomeCreated, second.Outcome)
	assert.Len(t, f.documents.docs, 2)
}

func TestHandleMessage_PhoneFallbackResolvesTenant(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	// Unknown channel account, but the sender phone matches the company.
	req := inboundReq("m-9")
	req.ChannelID = "wa-fresh"
	ack, err := f.svc.HandleMessage(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCreated, ack.Outcome)
}

func TestHandleMessage_DraftRejectedByAssembly(t *testing.T) {
	// A draft the parser accepts but document assembly rejects is a
	// business outcome, not a pipeline error.
	f := newInboundFixture(t, model.PlanStarter, 0)
	failing := &failingDocService{err: &money.InvalidLineItemError{Index: 0, Field: "quantity", Reason: "must be at least 1"}}
	svc := NewInboundService(f.messages, f.companies, NewTenantResolver(f.companies), failing, f.deduper, nil)

	ack, err := svc.HandleMessage(context.Background(), inboundReq("m-10"))

	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValidationFailed, ack.Outcome)
	msg := f.messages.single(t)
	assert.Equal(t, model.OutcomeValidationFailed, msg.Outcome)
	assert.True(t, msg.ParsedSuccessfully)
}

// failingDocService rejects every draft with a fixed error. The embedded
// interface panics on any other method, which no test should reach.
type failingDocService struct {
	DocumentService
	err error
}

func (s *failingDocService) CreateFromDraft(context.Context, *model.Company, *parser.Draft) (*model.Document, error) {
	return nil, s.err
}

// ── ListMessages ─────────────────────────────────────────────────────────────

func TestListMessages_FiltersByOutcome(t *testing.T) {
	f := newInboundFixture(t, model.PlanStarter, 0)

	_, err := f.svc.HandleMessage(context.Background(), inboundReq("m-11"))
	require.NoError(t, err)
	bad := inboundReq("m-12")
	bad.Body = "Hello!\nAnyone there?"
	_, err = f.svc.HandleMessage(context.Background(), bad)
	require.NoError(t, err)

	resp, err := f.svc.ListMessages(context.Background(), f.company.OwnerUserID, dto.MessageFilter{
		Outcome: model.OutcomeParseFailed, Page: 1, Limit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, model.OutcomeParseFailed, resp.Data[0].Outcome)
	assert.False(t, resp.Data[0].ParsedSuccessfully)
}
