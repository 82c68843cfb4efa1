package repository

import (
	"context"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, m *model.InboundMessage) error
	// AttachOutcome is the single post-ingest update an audit row receives.
	AttachOutcome(ctx context.Context, id uuid.UUID, companyID *uuid.UUID, parsed bool, outcome string, documentID *uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InboundMessage, error)
	List(ctx context.Context, companyID uuid.UUID, filter dto.MessageFilter) ([]model.InboundMessage, int64, error)
}

type messageRepo struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepo{db: db} }

func (r *messageRepo) Create(ctx context.Context, m *model.InboundMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepo) AttachOutcome(ctx context.Context, id uuid.UUID, companyID *uuid.UUID, parsed bool, outcome string, documentID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.InboundMessage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"company_id":          companyID,
			"parsed_successfully": parsed,
			"outcome":             outcome,
			"derived_document_id": documentID,
		}).Error
}

func (r *messageRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InboundMessage, error) {
	var m model.InboundMessage
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *messageRepo) List(ctx context.Context, companyID uuid.UUID, filter dto.MessageFilter) ([]model.InboundMessage, int64, error) {
	var msgs []model.InboundMessage
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.InboundMessage{}).Where("company_id = ?", companyID)

	if filter.Outcome != "" {
		q = q.Where("outcome = ?", filter.Outcome)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&msgs).Error

	return msgs, total, err
}
