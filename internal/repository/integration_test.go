//go:build integration

package repository

// Integration tests against a real Postgres via testcontainers, covering
// the SQL that unit tests cannot: the composite unique number index, the
// partial dedup index on provider message ids, atomic usage increments and
// the phone-suffix lookup.
//
// Run with: go test -tags integration ./internal/repository/... -v

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("autoinvoice_test"),
		tcPostgres.WithUsername("autoinvoice"),
		tcPostgres.WithPassword("autoinvoice"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Same path production boots with: AutoMigrate + schema patches.
	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, phone, channelID string) *model.Company {
	t.Helper()
	u := &model.User{
		Email: uuid.NewString() + "@integration.test", Name: "Owner",
		PasswordHash: "irrelevant", Active: true,
	}
	require.NoError(t, db.Create(u).Error)

	c := &model.Company{
		OwnerUserID:  u.ID,
		Name:         "Shop " + uuid.NewString()[:8],
		UsageResetAt: time.Now().UTC(),
	}
	if phone != "" {
		c.Phone = &phone
	}
	if channelID != "" {
		c.InboundChannelID = &channelID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func invoiceRow(companyID uuid.UUID, kind model.DocumentType, number string) *model.Document {
	return &model.Document{
		CompanyID: companyID, Type: kind, DocumentNumber: number,
		CustomerName: "John Smith", Subtotal: 10000, TaxRate: 600, TaxAmount: 600, Total: 10600,
		Status: model.StatusDraft,
		Items: []model.DocumentItem{
			{Description: "Product A", Quantity: 2, UnitPrice: 5000, Total: 10000, Position: 0},
		},
	}
}

// ── Document number uniqueness ───────────────────────────────────────────────

func TestDocumentNumber_UniquePerCompanyAndKind(t *testing.T) {
	db := setupDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	company := seedCompany(t, db, "", "")
	require.NoError(t, repo.Create(ctx, db, invoiceRow(company.ID, model.DocInvoice, "INV-2026-0001-X7K2")))

	// Same (company, kind, number) must be refused by the index and
	// surface as ErrDuplicatedKey thanks to TranslateError.
	err := repo.Create(ctx, db, invoiceRow(company.ID, model.DocInvoice, "INV-2026-0001-X7K2"))
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// A different kind may carry the same number string.
	require.NoError(t, repo.Create(ctx, db, invoiceRow(company.ID, model.DocQuotation, "INV-2026-0001-X7K2")))

	// And so may a different company.
	other := seedCompany(t, db, "", "")
	require.NoError(t, repo.Create(ctx, db, invoiceRow(other.ID, model.DocInvoice, "INV-2026-0001-X7K2")))
}

func TestLockKind_RunsInsideTransaction(t *testing.T) {
	db := setupDB(t)
	repo := NewDocumentRepository(db)
	company := seedCompany(t, db, "", "")

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.LockKind(context.Background(), tx, company.ID, model.DocInvoice)
	})
	require.NoError(t, err)
}

// ── Usage counter ────────────────────────────────────────────────────────────

func TestIncrementUsage_Sequence(t *testing.T) {
	db := setupDB(t)
	repo := NewCompanyRepository(db)
	ctx := context.Background()
	company := seedCompany(t, db, "", "")

	for want := int64(1); want <= 3; want++ {
		got, err := repo.IncrementUsage(ctx, db, company.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	fresh, err := repo.FindByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh.DocumentsUsedThisMonth)
}

func TestIncrementUsage_ConcurrentCallsNeverShareAValue(t *testing.T) {
	db := setupDB(t)
	repo := NewCompanyRepository(db)
	ctx := context.Background()
	company := seedCompany(t, db, "", "")

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			got, err := repo.IncrementUsage(ctx, db, company.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[got] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Ten increments, ten distinct post-increment values.
	assert.Len(t, seen, 10)
	for want := int64(1); want <= 10; want++ {
		assert.True(t, seen[want], "missing value %d", want)
	}
}

// ── Phone tail lookup ────────────────────────────────────────────────────────

func TestFindByPhoneTail(t *testing.T) {
	db := setupDB(t)
	repo := NewCompanyRepository(db)
	ctx := context.Background()

	company := seedCompany(t, db, "60123456789", "")
	seedCompany(t, db, "60987654321", "")

	// Full national number and the 10-digit suffix both resolve.
	for _, digits := range []string{"60123456789", "0123456789"} {
		got, err := repo.FindByPhoneTail(ctx, digits)
		require.NoError(t, err, digits)
		assert.Equal(t, company.ID, got.ID, digits)
	}

	_, err := repo.FindByPhoneTail(ctx, "99999999999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindByPhoneTail_OldestCompanyWins(t *testing.T) {
	db := setupDB(t)
	repo := NewCompanyRepository(db)

	first := seedCompany(t, db, "60123456789", "")
	seedCompany(t, db, "60123456789", "") // same number claimed again later

	got, err := repo.FindByPhoneTail(context.Background(), "60123456789")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

// ── Inbound message dedup index ──────────────────────────────────────────────

func TestInboundMessages_ProviderIDUniquePerChannel(t *testing.T) {
	db := setupDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	mid := "wamid.HBgLNjA"
	first := &model.InboundMessage{
		ChannelID: "whatsapp:60123456789", FromIdentifier: "601200001111",
		ProviderMessageID: &mid, RawBody: "Customer: John", Outcome: model.OutcomeReceived,
	}
	require.NoError(t, repo.Create(ctx, first))

	redelivery := &model.InboundMessage{
		ChannelID: "whatsapp:60123456789", FromIdentifier: "601200001111",
		ProviderMessageID: &mid, RawBody: "Customer: John", Outcome: model.OutcomeReceived,
	}
	err := repo.Create(ctx, redelivery)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The same provider id on another channel is a different message.
	otherChannel := &model.InboundMessage{
		ChannelID: "whatsapp:60999999999", FromIdentifier: "601200001111",
		ProviderMessageID: &mid, RawBody: "Customer: John", Outcome: model.OutcomeReceived,
	}
	require.NoError(t, repo.Create(ctx, otherChannel))
}

func TestInboundMessages_NilProviderIDUnconstrained(t *testing.T) {
	db := setupDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	// Providers that send no delivery id must never trip the index.
	for i := 0; i < 2; i++ {
		msg := &model.InboundMessage{
			ChannelID: "whatsapp:60123456789", FromIdentifier: "601200001111",
			RawBody: "hello", Outcome: model.OutcomeReceived,
		}
		require.NoError(t, repo.Create(ctx, msg))
	}
}

func TestAttachOutcome(t *testing.T) {
	db := setupDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	company := seedCompany(t, db, "", "")
	msg := &model.InboundMessage{
		ChannelID: "whatsapp:60123456789", FromIdentifier: "601200001111",
		RawBody: "Customer: John\nProduct A - 2 x RM 50", Outcome: model.OutcomeReceived,
	}
	require.NoError(t, repo.Create(ctx, msg))

	docID := uuid.New()
	require.NoError(t, repo.AttachOutcome(ctx, msg.ID, &company.ID, true, model.OutcomeCreated, &docID))

	got, err := repo.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCreated, got.Outcome)
	assert.True(t, got.ParsedSuccessfully)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, company.ID, *got.CompanyID)
	require.NotNil(t, got.DerivedDocumentID)
	assert.Equal(t, docID, *got.DerivedDocumentID)
}

// ── Document listing ─────────────────────────────────────────────────────────

func TestListDocuments_FilterAndPaginate(t *testing.T) {
	db := setupDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	company := seedCompany(t, db, "", "")
	require.NoError(t, repo.Create(ctx, db, invoiceRow(company.ID, model.DocInvoice, "INV-2026-0001-AAAA")))
	require.NoError(t, repo.Create(ctx, db, invoiceRow(company.ID, model.DocInvoice, "INV-2026-0002-BBBB")))
	require.NoError(t, repo.Create(ctx, db, invoiceRow(company.ID, model.DocQuotation, "QUO-2026-0001-CCCC")))

	docs, total, err := repo.List(ctx, company.ID, dto.DocumentFilter{Type: "invoice", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocInvoice, docs[0].Type)
	require.Len(t, docs[0].Items, 1, "items preloaded")

	// Another company sees nothing.
	other := seedCompany(t, db, "", "")
	_, total, err = repo.List(ctx, other.ID, dto.DocumentFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}
