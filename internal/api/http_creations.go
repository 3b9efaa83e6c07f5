package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quickai/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GetUserCreations GET /api/user/get-user-creations，按时间倒序返回调用者的创作。
func (h *HTTPHandler) GetUserCreations(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "authentication required"})
		return
	}

	params := entity.CreationQuery{UserID: requestUser.ID}
	params.Page = 1
	params.PageSize = 100

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	creations, _, err := h.repo.ListCreations(ctx, &params)
	if err != nil {
		logrus.WithError(err).WithField("user_id", requestUser.ID).Error("failed to list user creations")
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "failed to load creations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creations": makeCreationItems(creations)})
}

// GetPublishedCreations GET /api/user/get-published-creations，社区公开的图片创作。
func (h *HTTPHandler) GetPublishedCreations(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "authentication required"})
		return
	}

	params := entity.CreationQuery{
		Type:        entity.CreationTypeImage,
		OnlyPublish: true,
		IncludeAll:  true,
	}
	params.Page = 1
	params.PageSize = 100

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	creations, _, err := h.repo.ListCreations(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list published creations")
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "failed to load creations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creations": makeCreationItems(creations)})
}

// ToggleLikeCreation POST /api/user/toggle-like-creation，点赞/取消点赞。
func (h *HTTPHandler) ToggleLikeCreation(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "authentication required"})
		return
	}

	var req entity.ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "invalid creation id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	creation, err := h.repo.GetCreation(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Creation not found"})
			return
		}
		logrus.WithError(err).WithField("creation_id", req.ID).Error("failed to load creation")
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "failed to load creation"})
		return
	}

	userToken := strconv.FormatUint(uint64(requestUser.ID), 10)
	likes := creation.Likes.ToSlice()

	var (
		updated []string
		message string
	)
	if creation.Likes.Contains(userToken) {
		updated = make([]string, 0, len(likes))
		for _, like := range likes {
			if like != userToken {
				updated = append(updated, like)
			}
		}
		message = "Creation Unliked"
	} else {
		updated = append(likes, userToken)
		message = "Creation Liked"
	}

	if err := h.repo.UpdateCreationLikes(ctx, creation.ID, entity.StringArray(updated)); err != nil {
		logrus.WithError(err).WithField("creation_id", creation.ID).Error("failed to update likes")
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "failed to update likes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// ListCreations 管理端 GET /api/creations，支持按用户和类型过滤。
func (h *HTTPHandler) ListCreations(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var params entity.CreationQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	if requestUser.IsAdmin() {
		params.IncludeAll = true
		if userFilter := strings.TrimSpace(c.Query("user_id")); userFilter != "" {
			if parsed, err := strconv.ParseUint(userFilter, 10, 64); err == nil && parsed > 0 {
				params.UserID = uint(parsed)
				params.IncludeAll = false
			}
		}
	} else {
		params.UserID = requestUser.ID
		params.IncludeAll = false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	creations, meta, err := h.repo.ListCreations(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list creations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load creations"})
		return
	}

	if meta == nil {
		meta = &entity.Meta{Page: params.Page, PageSize: params.PageSize, Total: int64(len(creations))}
	}

	c.JSON(http.StatusOK, entity.CreationListResponse{Creations: makeCreationItems(creations), Meta: meta})
}

// GetCreationDetail 管理端 GET /api/creations/:id。
func (h *HTTPHandler) GetCreationDetail(c *gin.Context) {
	requestUser := CurrentUser(c)
	if requestUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid creation id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	creation, err := h.repo.GetCreation(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecordNotFound, "creation not found")
			return
		}
		logrus.WithError(err).WithField("creation_id", id).Error("failed to load creation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load creation"})
		return
	}

	if !requestUser.IsAdmin() && creation.UserID != requestUser.ID {
		Forbidden(c, "access denied")
		return
	}

	c.JSON(http.StatusOK, entity.CreationDetailResponse{Creation: makeCreationItem(*creation)})
}

func makeCreationItem(creation entity.DbCreation) entity.CreationItem {
	return entity.CreationItem{
		ID:        creation.ID,
		UserID:    creation.UserID,
		Prompt:    creation.Prompt,
		Content:   creation.Content,
		Type:      creation.Type,
		Publish:   creation.Publish,
		Likes:     creation.Likes.ToSlice(),
		CreatedAt: creation.CreatedAt,
		UpdatedAt: creation.UpdatedAt,
	}
}

func makeCreationItems(creations []entity.DbCreation) []entity.CreationItem {
	items := make([]entity.CreationItem, 0, len(creations))
	for _, creation := range creations {
		items = append(items, makeCreationItem(creation))
	}
	return items
}
