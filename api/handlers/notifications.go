package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary The caller's notifications
// @Tags notifications
// @Produce json
// @Param unreadOnly query bool false "Only unread"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} models.Page[models.Notification]
// @Router /notifications [get]
func ListNotifications(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListNotificationsService(w, r)
	}
}

// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} models.UnreadCount
// @Router /notifications/unread/count [get]
func UnreadCount(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UnreadCountService(w, r)
	}
}

func MarkRead(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MarkReadService(w, r)
	}
}

func MarkAllRead(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MarkAllReadService(w, r)
	}
}

// @Summary Delete all read notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} models.UnreadCount "Number of notifications removed"
// @Router /notifications/clear-read [delete]
func ClearRead(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearReadService(w, r)
	}
}

func DeleteNotification(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DeleteNotificationService(w, r)
	}
}
