package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeEntry struct {
	Id          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type        string           `gorm:"type:varchar(32);index"`
	Question    string           `gorm:"type:text"`
	Answer      string           `gorm:"type:text"`
	ContentHash string           `gorm:"type:varchar(64);index"`
	Embedding   *pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text / text-embedding-004 dimensions; NULL until embedded
	Metadata    datatypes.JSON   `gorm:"type:jsonb"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt   `gorm:"index"`
}

func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}
