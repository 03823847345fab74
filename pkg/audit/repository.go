package audit

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Entry struct {
	ID        int64             `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	CaseID    string            `json:"case_id" gorm:"column:case_id;index"`
	Actor     string            `json:"actor" gorm:"column:actor"`
	Action    string            `json:"action" gorm:"column:action"`
	Payload   datatypes.JSONMap `json:"payload,omitempty" gorm:"column:payload"`
	CreatedAt time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "case_audit_log"
}

// Repository writes the case audit trail. A nil Repository drops
// entries, so audit stays optional per deployment.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	if r == nil {
		return nil
	}
	return r.db.AutoMigrate(&Entry{})
}

func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return nil
	}
	entry.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *Repository) ForCase(ctx context.Context, caseID string, limit int) ([]Entry, error) {
	if r == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
