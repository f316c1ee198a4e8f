package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// NotificationController serves the in-app notification feed.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a NotificationController.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's notifications, newest first. ?unread=true limits
// to unread rows.
func (n *NotificationController) List(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, n.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	page, pageSize := pagination(ctx)

	q := n.db.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if strings.TrimSpace(ctx.Query("unread")) == "true" {
		q = q.Where("is_read = ?", false)
	}
	if t := strings.TrimSpace(ctx.Query("type")); t != "" {
		q = q.Where("notification_type = ?", t)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to count notifications")
		return
	}

	var rows []models.Notification
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to load notifications")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, notificationResponse(&rows[i], lang))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// MarkRead marks one notification as read. Marking twice is a no-op.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	id := strings.TrimSpace(ctx.Param("id"))
	var note models.Notification
	err := n.db.Take(&note, "id = ? AND user_id = ?", id, userID).Error
	if err == gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusNotFound, 40404, "notification not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to load notification")
		return
	}

	if !note.IsRead {
		now := time.Now()
		note.IsRead = true
		note.ReadAt = &now
		if err := n.db.Save(&note).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to mark notification")
			return
		}
	}

	utils.SuccessMsg(ctx, "notification read", gin.H{"id": note.ID, "read_at": note.ReadAt})
}

// MarkAllRead marks every unread notification for the caller.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	now := time.Now()
	res := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50074, "failed to mark notifications")
		return
	}

	utils.SuccessMsg(ctx, "all notifications read", gin.H{"marked": res.RowsAffected})
}

// UnreadCount returns the number of unread notifications.
func (n *NotificationController) UnreadCount(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var count int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50075, "failed to count notifications")
		return
	}

	utils.Success(ctx, gin.H{"unread_count": count})
}
