package implementation

import (
	"context"

	"ai-kindergarten-be/internal/entity"
	"ai-kindergarten-be/internal/mapper"
	"ai-kindergarten-be/internal/model"
	"ai-kindergarten-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeRepositoryImpl) Create(ctx context.Context, entry *entity.KnowledgeEntry) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeRepositoryImpl) CreateBulk(ctx context.Context, entries []*entity.KnowledgeEntry) error {
	models := make([]*model.KnowledgeEntry, len(entries))
	for i, e := range entries {
		models[i] = r.mapper.ToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*entries[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeRepositoryImpl) FindAllActive(ctx context.Context) ([]*entity.KnowledgeEntry, error) {
	var models []*model.KnowledgeEntry
	// created_at order keeps rebuilds deterministic for tie-breaking.
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *KnowledgeRepositoryImpl) UpdateEmbedding(ctx context.Context, id uuid.UUID, contentHash string, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.KnowledgeEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_hash": contentHash,
			"embedding":    pgvector.NewVector(embedding),
		}).Error
}

func (r *KnowledgeRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.KnowledgeEntry{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeEntry{}, id).Error
}
