package services

import (
	"net/http"
	"strconv"

	"github.com/civicconnect/civicconnect-services/models"
)

// ListNotificationsService pages the caller's notifications, newest first.
// unreadOnly=true hides read ones.
func (svc *Service) ListNotificationsService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unreadOnly"))

	page, err := svc.DB.ListNotifications(r.Context(), claims.UserID(), unreadOnly, pagination(r))
	if err != nil {
		fail(w, r, err, "Database error retrieving notifications")
		return
	}
	WriteResponse(w, http.StatusOK, page)
}

func (svc *Service) UnreadCountService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	n, err := svc.DB.CountUnread(r.Context(), claims.UserID())
	if err != nil {
		fail(w, r, err, "Database error counting notifications")
		return
	}
	WriteResponse(w, http.StatusOK, models.UnreadCount{Count: n})
}

func (svc *Service) MarkReadService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid notification id")
		return
	}
	if err := svc.DB.MarkNotificationRead(r.Context(), claims.UserID(), id); err != nil {
		fail(w, r, err, "Failed to mark notification as read")
		return
	}
	WriteResponse(w, http.StatusOK, models.MessageResponse{Message: "Notification marked as read"})
}

func (svc *Service) MarkAllReadService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	n, err := svc.DB.MarkAllNotificationsRead(r.Context(), claims.UserID())
	if err != nil {
		fail(w, r, err, "Failed to mark notifications as read")
		return
	}
	WriteResponse(w, http.StatusOK, models.UnreadCount{Count: n})
}

func (svc *Service) DeleteNotificationService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid notification id")
		return
	}
	if err := svc.DB.DeleteNotification(r.Context(), claims.UserID(), id); err != nil {
		fail(w, r, err, "Failed to delete notification")
		return
	}
	WriteResponse(w, http.StatusNoContent, nil)
}

// ClearReadService deletes every notification the caller has already read.
func (svc *Service) ClearReadService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	n, err := svc.DB.ClearReadNotifications(r.Context(), claims.UserID())
	if err != nil {
		fail(w, r, err, "Failed to clear read notifications")
		return
	}
	WriteResponse(w, http.StatusOK, models.UnreadCount{Count: n})
}
