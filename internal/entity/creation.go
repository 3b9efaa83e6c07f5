package entity

import (
	"time"

	"quickai/internal/entity/common"
)

// 创作类型。背景移除和物体移除的结果也按 image 入库。
const (
	CreationTypeArticle      = "article"
	CreationTypeBlogTitle    = "blog-title"
	CreationTypeImage        = "image"
	CreationTypeResumeReview = "resume-review"
)

// DbCreation stores one generation result per request.
type DbCreation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint    `gorm:"column:user_id;index" json:"user_id"`
	User   *DbUser `gorm:"foreignKey:UserID" json:"-"`

	Prompt  string `gorm:"column:prompt;type:text" json:"prompt"`
	Content string `gorm:"column:content;type:text" json:"content"`
	Type    string `gorm:"column:type;type:varchar(50);index" json:"type"`

	Publish bool               `gorm:"column:publish;not null;default:false" json:"publish"`
	Likes   common.StringArray `gorm:"column:likes;type:json" json:"likes"`
}

// TableName 指定表名
func (DbCreation) TableName() string {
	return "creations"
}

// CreationQuery supports querying creations.
type CreationQuery struct {
	BaseParams
	Type        string `json:"type" form:"type" query:"type"`
	UserID      uint   `json:"-" form:"-" query:"-"`
	OnlyPublish bool   `json:"-" form:"-" query:"-"`
	IncludeAll  bool   `json:"-" form:"-" query:"-"`
}

// CreationItem is the response representation of a creation.
type CreationItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Publish   bool      `json:"publish"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreationListResponse is the response for listing creations.
type CreationListResponse struct {
	Creations []CreationItem `json:"creations"`
	Meta      *Meta          `json:"meta"`
}

// CreationDetailResponse is the response for a single creation.
type CreationDetailResponse struct {
	Creation CreationItem `json:"creation"`
}
