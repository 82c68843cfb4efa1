package repository

import (
	"context"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*model.Company, error)
	FindByChannelID(ctx context.Context, channelID string) (*model.Company, error)
	// FindByPhoneTail matches on the last 10 digits of the stored phone,
	// so "+60 12-345 6789" and "60123456789" resolve to the same company.
	FindByPhoneTail(ctx context.Context, digits string) (*model.Company, error)
	FindByBillingCustomerRef(ctx context.Context, ref string) (*model.Company, error)
	Update(ctx context.Context, c *model.Company) error
	// IncrementUsage atomically bumps the monthly counter and returns the
	// new value; callers run it inside the document-create transaction.
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	SetUsage(ctx context.Context, id uuid.UUID, used int64, resetAt time.Time) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) DB() *gorm.DB { return r.db }

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *companyRepo) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerUserID).First(&c).Error
	return &c, err
}

func (r *companyRepo) FindByChannelID(ctx context.Context, channelID string) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).Where("inbound_channel_id = ?", channelID).First(&c).Error
	return &c, err
}

func (r *companyRepo) FindByPhoneTail(ctx context.Context, digits string) (*model.Company, error) {
	var c model.Company
	// Phones are stored normalized (digits only); RIGHT on both sides makes
	// the comparison robust to short numbers.
	err := r.db.WithContext(ctx).
		Where("phone IS NOT NULL AND phone <> '' AND RIGHT(phone, 10) = RIGHT(?, 10)", digits).
		Order("created_at ASC").
		First(&c).Error
	return &c, err
}

func (r *companyRepo) FindByBillingCustomerRef(ctx context.Context, ref string) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).Where("billing_customer_ref = ?", ref).First(&c).Error
	return &c, err
}

func (r *companyRepo) Update(ctx context.Context, c *model.Company) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *companyRepo) IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var used int64
	err := tx.WithContext(ctx).Raw(`
		UPDATE companies
		SET documents_used_this_month = documents_used_this_month + 1,
		    updated_at = NOW()
		WHERE id = ?
		RETURNING documents_used_this_month
	`, id).Scan(&used).Error
	return used, err
}

func (r *companyRepo) SetUsage(ctx context.Context, id uuid.UUID, used int64, resetAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Company{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"documents_used_this_month": used,
			"usage_reset_at":            resetAt,
		}).Error
}

func (r *companyRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Company{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
