package identity

import (
	"context"
	"fmt"

	"quickai/internal/entity"
	"quickai/internal/model"
)

// UsageState 描述账户的订阅计划与免费额度使用情况。
type UsageState struct {
	UserID    uint
	Plan      string
	FreeUsage int
}

// IsPremium reports whether the account is on the premium plan.
func (s UsageState) IsPremium() bool {
	return s.Plan == entity.PlanPremium
}

// Provider exposes the subscription state the generation pipeline depends on.
type Provider interface {
	UsageState(ctx context.Context, userID uint) (UsageState, error)
	IncrementFreeUsage(ctx context.Context, userID uint) error
}

type dbProvider struct {
	repo model.Repository
}

// NewProvider 基于用户仓库创建 Provider。
func NewProvider(repo model.Repository) Provider {
	return &dbProvider{repo: repo}
}

func (p *dbProvider) UsageState(ctx context.Context, userID uint) (UsageState, error) {
	if p == nil || p.repo == nil {
		return UsageState{}, fmt.Errorf("identity provider not initialised")
	}
	user, err := p.repo.GetUserByID(ctx, userID)
	if err != nil {
		return UsageState{}, err
	}
	plan := user.Plan
	if plan == "" {
		plan = entity.PlanFree
	}
	return UsageState{
		UserID:    user.ID,
		Plan:      plan,
		FreeUsage: user.FreeUsage,
	}, nil
}

func (p *dbProvider) IncrementFreeUsage(ctx context.Context, userID uint) error {
	if p == nil || p.repo == nil {
		return fmt.Errorf("identity provider not initialised")
	}
	return p.repo.IncrementUserFreeUsage(ctx, userID)
}
