package service

import (
	"testing"

	"quickai/internal/entity"
	"quickai/internal/identity"
)

func TestCheckGate(t *testing.T) {
	tests := []struct {
		name         string
		creationType string
		plan         string
		freeUsage    int
		wantDenied   bool
		wantMessage  string
	}{
		{
			name:         "免费用户额度内生成文章",
			creationType: entity.CreationTypeArticle,
			plan:         entity.PlanFree,
			freeUsage:    9,
			wantDenied:   false,
		},
		{
			name:         "免费用户额度用尽",
			creationType: entity.CreationTypeArticle,
			plan:         entity.PlanFree,
			freeUsage:    10,
			wantDenied:   true,
			wantMessage:  "Limit reached. Upgrade to continue.",
		},
		{
			name:         "免费用户超额",
			creationType: entity.CreationTypeBlogTitle,
			plan:         entity.PlanFree,
			freeUsage:    25,
			wantDenied:   true,
			wantMessage:  "Limit reached. Upgrade to continue.",
		},
		{
			name:         "premium 用户无视额度",
			creationType: entity.CreationTypeArticle,
			plan:         entity.PlanPremium,
			freeUsage:    999,
			wantDenied:   false,
		},
		{
			name:         "免费用户请求图片生成",
			creationType: entity.CreationTypeImage,
			plan:         entity.PlanFree,
			freeUsage:    0,
			wantDenied:   true,
			wantMessage:  "This feature is only available for premium subscriptions.",
		},
		{
			name:         "免费用户请求简历点评",
			creationType: entity.CreationTypeResumeReview,
			plan:         entity.PlanFree,
			freeUsage:    0,
			wantDenied:   true,
			wantMessage:  "This feature is only available for premium subscriptions.",
		},
		{
			name:         "premium 用户请求图片生成",
			creationType: entity.CreationTypeImage,
			plan:         entity.PlanPremium,
			freeUsage:    0,
			wantDenied:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := identity.UsageState{UserID: 1, Plan: tt.plan, FreeUsage: tt.freeUsage}
			failure := checkGate(tt.creationType, state, 10)
			if tt.wantDenied {
				if failure == nil {
					t.Fatal("expected denial, got nil")
				}
				if failure.Kind != FailureQuota {
					t.Errorf("expected quota failure, got %s", failure.Kind)
				}
				if failure.Message != tt.wantMessage {
					t.Errorf("expected message %q, got %q", tt.wantMessage, failure.Message)
				}
				return
			}
			if failure != nil {
				t.Fatalf("expected pass, got %q", failure.Message)
			}
		})
	}
}

func TestCountsAgainstQuota(t *testing.T) {
	if !countsAgainstQuota(entity.CreationTypeArticle) {
		t.Error("article should count against quota")
	}
	if !countsAgainstQuota(entity.CreationTypeBlogTitle) {
		t.Error("blog-title should count against quota")
	}
	if countsAgainstQuota(entity.CreationTypeImage) {
		t.Error("image should not count against quota")
	}
	if countsAgainstQuota(entity.CreationTypeResumeReview) {
		t.Error("resume-review should not count against quota")
	}
}
