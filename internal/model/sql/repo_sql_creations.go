package sql

import (
	"context"
	"fmt"
	"strings"

	"quickai/internal/entity"

	"gorm.io/gorm"
)

// CreateCreation inserts a new creation row.
func (r *GormRepository) CreateCreation(ctx context.Context, creation *entity.DbCreation) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if creation == nil {
		return fmt.Errorf("creation is nil")
	}
	if creation.Likes == nil {
		creation.Likes = entity.StringArray{}
	}
	return r.db.WithContext(ctx).Create(creation).Error
}

// ListCreations retrieves paginated creations, newest first.
func (r *GormRepository) ListCreations(ctx context.Context, params *entity.CreationQuery) ([]entity.DbCreation, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbCreation{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Type); trimmed != "" {
			query = query.Where("type = ?", trimmed)
		}
		if !params.IncludeAll && params.UserID > 0 {
			query = query.Where("user_id = ?", params.UserID)
		}
		if params.OnlyPublish {
			query = query.Where("publish = ?", true)
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var creations []entity.DbCreation
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&creations).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return creations, meta, nil
}

// GetCreation retrieves a single creation by ID.
func (r *GormRepository) GetCreation(ctx context.Context, id uint) (*entity.DbCreation, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid creation id")
	}

	var creation entity.DbCreation
	if err := r.db.WithContext(ctx).First(&creation, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load creation: %w", err)
	}
	return &creation, nil
}

// UpdateCreationLikes replaces the likes array of a creation.
func (r *GormRepository) UpdateCreationLikes(ctx context.Context, id uint, likes entity.StringArray) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid creation id")
	}
	if likes == nil {
		likes = entity.StringArray{}
	}
	result := r.db.WithContext(ctx).Model(&entity.DbCreation{}).Where("id = ?", id).Update("likes", likes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
