package repository

import (
	"context"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// LockKind serializes numbering for one (company, kind) pair for the
	// duration of the surrounding transaction.
	LockKind(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind model.DocumentType) error
	CountByKind(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind model.DocumentType) (int64, error)
	List(ctx context.Context, companyID uuid.UUID, filter dto.DocumentFilter) ([]model.Document, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error
	// ReplaceContent rewrites a document's own fields and its line items.
	ReplaceContent(ctx context.Context, tx *gorm.DB, d *model.Document) error
	UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error
	CountCreatedSince(ctx context.Context, companyID uuid.UUID, since time.Time) (int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository { return &documentRepo{db: db} }

func (r *documentRepo) DB() *gorm.DB { return r.db }

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, d *model.Document) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var d model.Document
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&d, id).Error
	return &d, err
}

func (r *documentRepo) LockKind(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind model.DocumentType) error {
	return tx.WithContext(ctx).Exec(
		"SELECT pg_advisory_xact_lock(hashtext(?), hashtext(?))",
		companyID.String(), string(kind),
	).Error
}

func (r *documentRepo) CountByKind(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, kind model.DocumentType) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.Document{}).
		Where("company_id = ? AND type = ?", companyID, kind).
		Count(&n).Error
	return n, err
}

func (r *documentRepo) List(ctx context.Context, companyID uuid.UUID, filter dto.DocumentFilter) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Document{}).Where("company_id = ?", companyID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&docs).Error

	return docs, total, err
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("status", status).Error
}

func (r *documentRepo) ReplaceContent(ctx context.Context, tx *gorm.DB, d *model.Document) error {
	if err := tx.WithContext(ctx).Where("document_id = ?", d.ID).Delete(&model.DocumentItem{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Omit("Items").Save(d).Error; err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&d.Items).Error
}

func (r *documentRepo) UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("pdf_path", path).Error
}

func (r *documentRepo) CountCreatedSince(ctx context.Context, companyID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("company_id = ? AND created_at >= ?", companyID, since).
		Count(&n).Error
	return n, err
}
