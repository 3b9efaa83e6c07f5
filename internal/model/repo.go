package model

import (
	"context"

	"quickai/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)
	IncrementUserFreeUsage(ctx context.Context, id uint) error

	// 创作记录
	CreateCreation(ctx context.Context, creation *entity.DbCreation) error
	ListCreations(ctx context.Context, params *entity.CreationQuery) ([]entity.DbCreation, *entity.Meta, error)
	GetCreation(ctx context.Context, id uint) (*entity.DbCreation, error)
	UpdateCreationLikes(ctx context.Context, id uint, likes entity.StringArray) error
}
