package staff

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, s *Staff) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) FindByUsername(ctx context.Context, username string) (*Staff, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var s Staff
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Staff, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var s Staff
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List 按门店过滤分页列出员工，hubID 为空表示全部。
func (r *Repo) List(ctx context.Context, hubID string, offset, limit int) ([]Staff, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := r.db.WithContext(ctx).Model(&Staff{})
	if hubID != "" {
		q = q.Where("hub_id = ?", hubID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var staffs []Staff
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&staffs).Error; err != nil {
		return nil, 0, err
	}
	return staffs, total, nil
}
