package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetProfileService(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"active", citizenFixture(), http.StatusOK},
		{"deactivated", func() *models.User { u := citizenFixture(); u.Active = false; return u }(), http.StatusForbidden},
		{"removed", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc, _ := newTestService(t, store)
			store.On("GetUser", mock.Anything, int64(7)).Return(tt.user, nil)

			c := claimsFor(7, catalog.RoleCitizen, nil)
			w := httptest.NewRecorder()
			svc.GetProfileService(w, newRequest(t, http.MethodGet, "/profile", nil, &c, nil))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestUpdateProfileService_KeepsEmptyFields(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	user := citizenFixture()
	user.AddressLine1 = "12 Lake Road"
	user.City = "Pune"
	store.On("GetUser", mock.Anything, int64(7)).Return(user, nil)
	store.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "Asha Patil" && u.AddressLine1 == "12 Lake Road" && u.City == "Pune" && u.Pincode == "411002"
	})).Return(user, nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.UpdateProfileService(w, newRequest(t, http.MethodPut, "/profile",
		models.UpdateProfileRequest{Name: " Asha Patil ", Pincode: "411002"}, &c, nil))

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	store.AssertExpectations(t)
}

func TestUpdateNameService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)
	store.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "Asha Patil"
	})).Return(citizenFixture(), nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.UpdateNameService(w, newRequest(t, http.MethodPut, "/profile/name", models.UpdateNameRequest{Name: "Asha Patil"}, &c, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	svc.UpdateNameService(w, newRequest(t, http.MethodPut, "/profile/name", models.UpdateNameRequest{Name: "R2-D2"}, &c, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNumberOfCalls(t, "UpdateProfile", 1)
}

func TestUpdateAddressService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)
	store.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.AddressLine1 == "4 Station Road" && u.AddressLine2 == "" && u.City == "Nashik" && u.Pincode == "422001"
	})).Return(citizenFixture(), nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.UpdateAddressService(w, newRequest(t, http.MethodPut, "/profile/address", models.UpdateAddressRequest{
		AddressLine1: "4 Station Road", City: "Nashik", Pincode: "422001",
	}, &c, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	svc.UpdateAddressService(w, newRequest(t, http.MethodPut, "/profile/address", models.UpdateAddressRequest{
		AddressLine1: "4 Station Road", City: "Nashik", Pincode: "42",
	}, &c, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody[models.ErrorResponse](t, w).Errors, "pincode")
	store.AssertNumberOfCalls(t, "UpdateProfile", 1)
}

func TestUpdateProfileService_Deactivated(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	user := citizenFixture()
	user.Active = false
	store.On("GetUser", mock.Anything, int64(7)).Return(user, nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.UpdateNameService(w, newRequest(t, http.MethodPut, "/profile/name", models.UpdateNameRequest{Name: "Asha Patil"}, &c, nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "account is deactivated", decodeBody[models.ErrorResponse](t, w).Message)
	store.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestChangePasswordService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	user := citizenFixture()
	user.PasswordHash = hashed(t, "Secret12!")
	store.On("GetUser", mock.Anything, int64(7)).Return(user, nil)
	store.On("UpdatePassword", mock.Anything, int64(7), mock.AnythingOfType("string")).Return(nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	req := models.ChangePasswordRequest{CurrentPassword: "Secret12!", NewPassword: "Better34$", ConfirmPassword: "Better34$"}

	w := httptest.NewRecorder()
	svc.ChangePasswordService(w, newRequest(t, http.MethodPut, "/profile/password", req, &c, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req.CurrentPassword = "Wrong12!"
	w = httptest.NewRecorder()
	svc.ChangePasswordService(w, newRequest(t, http.MethodPut, "/profile/password", req, &c, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestRequestOTPService(t *testing.T) {
	store := new(MockStore)
	mailer := new(MockMailer)
	svc, pub := newTestService(t, store)
	svc.Mailer = mailer

	store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)
	store.On("GetUserByMobile", mock.Anything, "9000000001").Return(nil, nil)
	store.On("UpsertOTPChallenge", mock.Anything, mock.MatchedBy(func(ch *models.OTPChallenge) bool {
		return ch.UserID == 7 && ch.NewMobile == "9000000001" && ch.CodeHash != "" &&
			ch.ExpiresAt.Equal(testNow.Add(5*time.Minute))
	})).Return(nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
		return m.To == "asha@example.com"
	})).Return(nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.RequestOTPService(w, newRequest(t, http.MethodPost, "/profile/mobile/request-otp",
		models.MobileOTPRequest{NewMobile: "9000000001"}, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, []string{events.TypeOTPIssued}, pub.Types())
	assert.Equal(t, int64(7), pub.Events[0].ActorID)
	store.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRequestOTPService_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mobile string
		taken  *models.User
		status int
	}{
		{"same number", "9876543210", nil, http.StatusBadRequest},
		{"number in use", "9000000001", &models.User{ID: 9}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc, _ := newTestService(t, store)

			store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)
			store.On("GetUserByMobile", mock.Anything, tt.mobile).Return(tt.taken, nil)

			c := claimsFor(7, catalog.RoleCitizen, nil)
			w := httptest.NewRecorder()
			svc.RequestOTPService(w, newRequest(t, http.MethodPost, "/profile/mobile/request-otp",
				models.MobileOTPRequest{NewMobile: tt.mobile}, &c, nil))

			assert.Equal(t, tt.status, w.Code)
			store.AssertNotCalled(t, "UpsertOTPChallenge", mock.Anything, mock.Anything)
		})
	}
}

func otpChallenge(t *testing.T, attempts int, expires time.Time) *models.OTPChallenge {
	return &models.OTPChallenge{
		UserID:    7,
		NewMobile: "9000000001",
		CodeHash:  hashed(t, "123456"),
		Attempts:  attempts,
		ExpiresAt: expires,
	}
}

func TestVerifyOTPService(t *testing.T) {
	c := claimsFor(7, catalog.RoleCitizen, nil)
	valid := testNow.Add(time.Minute)

	verify := func(t *testing.T, svc *Service, mobile, code string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		svc.VerifyOTPService(w, newRequest(t, http.MethodPost, "/profile/mobile/verify-otp",
			models.VerifyOTPRequest{NewMobile: mobile, OTP: code}, &c, nil))
		return w
	}

	t.Run("correct code", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(otpChallenge(t, 1, valid), nil)
		store.On("ApplyVerifiedMobile", mock.Anything, int64(7), "9000000001").Return(nil)

		w := verify(t, svc, "9000000001", "123456")
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "DeleteOTPChallenge", mock.Anything, mock.Anything)
	})

	t.Run("wrong code counts an attempt", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(otpChallenge(t, 1, valid), nil)

		w := verify(t, svc, "9000000001", "654321")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody[models.ErrorResponse](t, w).Message, "2 attempt(s) left")
		store.AssertNotCalled(t, "DeleteOTPChallenge", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "ApplyVerifiedMobile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("different mobile counts an attempt", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(otpChallenge(t, 2, valid), nil)

		w := verify(t, svc, "9000000002", "123456")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody[models.ErrorResponse](t, w).Message, "1 attempt(s) left")
		store.AssertNotCalled(t, "ApplyVerifiedMobile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last wrong attempt discards the code", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(otpChallenge(t, 3, valid), nil)
		store.On("DeleteOTPChallenge", mock.Anything, int64(7)).Return(nil)

		w := verify(t, svc, "9000000001", "654321")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody[models.ErrorResponse](t, w).Message, "Too many incorrect attempts")
		store.AssertExpectations(t)
	})

	t.Run("expired, missing or exhausted code", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(nil, nil)
		store.On("DeleteOTPChallenge", mock.Anything, int64(7)).Return(nil)

		w := verify(t, svc, "9000000001", "123456")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid or expired verification code", decodeBody[models.ErrorResponse](t, w).Message)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "ApplyVerifiedMobile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed cleanup still rejects", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(nil, nil)
		store.On("DeleteOTPChallenge", mock.Anything, int64(7)).Return(errors.New("connection reset"))

		w := verify(t, svc, "9000000001", "123456")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		store.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		store := new(MockStore)
		svc, _ := newTestService(t, store)
		store.On("ClaimOTPAttempt", mock.Anything, int64(7), 3, testNow).Return(nil, errors.New("connection reset"))

		w := verify(t, svc, "9000000001", "123456")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		store.AssertNotCalled(t, "DeleteOTPChallenge", mock.Anything, mock.Anything)
	})
}

func TestCompletionScoreService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)
	store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.CompletionScoreService(w, newRequest(t, http.MethodGet, "/profile/completion-score", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[models.ProfileCompletionResponse](t, w)
	assert.Equal(t, 75, resp.Score)
	assert.Equal(t, []string{"addressLine1", "city", "pincode"}, resp.Missing)
}

func TestRequestWardChangeService(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		wardFound bool
		createErr error
		status    int
	}{
		{"accepted", 2, true, nil, http.StatusCreated},
		{"same ward", 1, true, nil, http.StatusBadRequest},
		{"unknown ward", 9, false, nil, http.StatusBadRequest},
		{"already pending", 2, true, fmt.Errorf("insert: %w", db.ErrConflict), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc, _ := newTestService(t, store)

			store.On("GetUser", mock.Anything, int64(7)).Return(citizenFixture(), nil)
			if tt.wardFound {
				store.On("GetWard", mock.Anything, tt.requested).Return(&models.Ward{ID: tt.requested}, nil)
			} else {
				store.On("GetWard", mock.Anything, tt.requested).Return(nil, nil)
			}
			if tt.createErr != nil {
				store.On("CreateWardChange", mock.Anything, mock.Anything).Return(nil, tt.createErr)
			} else {
				store.On("CreateWardChange", mock.Anything, mock.Anything).
					Return(&models.WardChangeRequest{ID: 1, CitizenID: 7, CurrentWardID: 1, RequestedWardID: tt.requested, Status: models.WardChangePending}, nil)
			}

			c := claimsFor(7, catalog.RoleCitizen, nil)
			w := httptest.NewRecorder()
			svc.RequestWardChangeService(w, newRequest(t, http.MethodPost, "/ward-change/request",
				models.WardChangeCreate{RequestedWardID: tt.requested, Reason: "Moved to a new flat"}, &c, nil))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestDecideWardChangeService(t *testing.T) {
	ward1, ward2, ward3 := int64(1), int64(2), int64(3)
	pending := &models.WardChangeRequest{ID: 5, CitizenID: 7, CurrentWardID: 1, RequestedWardID: 2, Status: models.WardChangePending}

	tests := []struct {
		name   string
		role   string
		wardID *int64
		status int
	}{
		{"officer of current ward", catalog.RoleWardOfficer, &ward1, http.StatusOK},
		{"officer of requested ward", catalog.RoleWardOfficer, &ward2, http.StatusOK},
		{"officer of unrelated ward", catalog.RoleWardOfficer, &ward3, http.StatusForbidden},
		{"admin", catalog.RoleAdmin, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc, pub := newTestService(t, store)

			approved := *pending
			approved.Status = models.WardChangeApproved
			store.On("GetWardChange", mock.Anything, int64(5)).Return(pending, nil)
			store.On("DecideWardChange", mock.Anything, int64(5), true, int64(20), tt.role, "").Return(&approved, nil)

			c := claimsFor(20, tt.role, tt.wardID)
			w := httptest.NewRecorder()
			svc.ApproveWardChangeService(w, newRequest(t, http.MethodPut, "/ward-change/5/approve", nil, &c, map[string]string{"id": "5"}))

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				require.Equal(t, []string{events.TypeWardChangeDecide}, pub.Types())
				assert.Equal(t, models.WardChangeApproved, pub.Events[0].Status)
				assert.Equal(t, int64(7), pub.Events[0].CitizenID)
				assert.Equal(t, int64(2), pub.Events[0].WardID)
			} else {
				assert.Empty(t, pub.Events)
			}
		})
	}
}

func TestDecideWardChangeService_AlreadyDecided(t *testing.T) {
	store := new(MockStore)
	svc, pub := newTestService(t, store)

	store.On("GetWardChange", mock.Anything, int64(5)).
		Return(&models.WardChangeRequest{ID: 5, CurrentWardID: 1, RequestedWardID: 2, Status: models.WardChangeRejected}, nil)
	store.On("DecideWardChange", mock.Anything, int64(5), false, int64(1), catalog.RoleAdmin, "Duplicate").
		Return(nil, db.ErrConflict)

	c := claimsFor(1, catalog.RoleAdmin, nil)
	w := httptest.NewRecorder()
	svc.RejectWardChangeService(w, newRequest(t, http.MethodPut, "/ward-change/5/reject",
		models.WardChangeDecision{Remarks: "Duplicate"}, &c, map[string]string{"id": "5"}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, pub.Events)
}

func TestNotificationServices(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)
	c := claimsFor(7, catalog.RoleCitizen, nil)

	store.On("CountUnread", mock.Anything, int64(7)).Return(int64(3), nil)
	store.On("MarkNotificationRead", mock.Anything, int64(7), int64(11)).Return(nil)
	store.On("MarkNotificationRead", mock.Anything, int64(7), int64(12)).Return(db.ErrNotFound)
	store.On("DeleteNotification", mock.Anything, int64(7), int64(11)).Return(nil)
	store.On("ClearReadNotifications", mock.Anything, int64(7)).Return(int64(4), nil)
	store.On("MarkAllNotificationsRead", mock.Anything, int64(7)).Return(int64(2), nil)

	w := httptest.NewRecorder()
	svc.UnreadCountService(w, newRequest(t, http.MethodGet, "/notifications/unread/count", nil, &c, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), decodeBody[models.UnreadCount](t, w).Count)

	w = httptest.NewRecorder()
	svc.MarkReadService(w, newRequest(t, http.MethodPut, "/notifications/11/read", nil, &c, map[string]string{"id": "11"}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	svc.MarkReadService(w, newRequest(t, http.MethodPut, "/notifications/12/read", nil, &c, map[string]string{"id": "12"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	svc.DeleteNotificationService(w, newRequest(t, http.MethodDelete, "/notifications/11", nil, &c, map[string]string{"id": "11"}))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	svc.DeleteNotificationService(w, newRequest(t, http.MethodDelete, "/notifications/abc", nil, &c, map[string]string{"id": "abc"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	svc.MarkAllReadService(w, newRequest(t, http.MethodPut, "/notifications/mark-all-as-read", nil, &c, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decodeBody[models.UnreadCount](t, w).Count)

	w = httptest.NewRecorder()
	svc.ClearReadService(w, newRequest(t, http.MethodDelete, "/notifications/clear-read", nil, &c, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), decodeBody[models.UnreadCount](t, w).Count)
}

func TestListNotificationsService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("ListNotifications", mock.Anything, int64(7), true, mock.MatchedBy(func(p models.Pagination) bool {
		return p.Page == 1 && p.Size == 5
	})).Return(models.NewPage([]models.Notification{{ID: 11, UserID: 7, Title: "Assigned"}}, models.Pagination{Page: 1, Size: 5}, 6), nil)

	c := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.ListNotificationsService(w, newRequest(t, http.MethodGet, "/notifications?unreadOnly=true&page=1&size=5", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decodeBody[models.Page[models.Notification]](t, w)
	assert.Equal(t, int64(6), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	store.AssertExpectations(t)
}

func TestWardChangeListServices(t *testing.T) {
	ward := int64(2)
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("ListWardChangesByCitizen", mock.Anything, int64(7)).Return([]models.WardChangeRequest{
		{ID: 5, CitizenID: 7, CurrentWardID: 1, RequestedWardID: 2, Status: models.WardChangePending},
	}, nil)
	store.On("ListPendingWardChanges", mock.Anything, models.WardChangeScope{WardID: &ward}).
		Return([]models.WardChangeRequest{{ID: 5}}, nil)
	store.On("ListPendingWardChanges", mock.Anything, models.WardChangeScope{}).
		Return([]models.WardChangeRequest{{ID: 5}, {ID: 6}}, nil)

	citizen := claimsFor(7, catalog.RoleCitizen, nil)
	w := httptest.NewRecorder()
	svc.MyWardChangesService(w, newRequest(t, http.MethodGet, "/ward-change/my-requests", nil, &citizen, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[[]models.WardChangeRequest](t, w), 1)

	officer := claimsFor(20, catalog.RoleWardOfficer, &ward)
	w = httptest.NewRecorder()
	svc.PendingWardChangesService(w, newRequest(t, http.MethodGet, "/ward-change/pending", nil, &officer, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[[]models.WardChangeRequest](t, w), 1)

	admin := claimsFor(1, catalog.RoleAdmin, nil)
	w = httptest.NewRecorder()
	svc.PendingWardChangesService(w, newRequest(t, http.MethodGet, "/ward-change/pending", nil, &admin, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[[]models.WardChangeRequest](t, w), 2)

	noWard := claimsFor(21, catalog.RoleWardOfficer, nil)
	w = httptest.NewRecorder()
	svc.PendingWardChangesService(w, newRequest(t, http.MethodGet, "/ward-change/pending", nil, &noWard, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	w := httptest.NewRecorder()
	svc.HealthService(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	svc.HealthService(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DOWN", decodeBody[models.HealthResponse](t, w).Database)
}

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{httpError(http.StatusTeapot, "teapot"), http.StatusTeapot},
		{fmt.Errorf("lookup: %w", db.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("insert: %w", db.ErrConflict), http.StatusConflict},
		{fmt.Errorf("hash: %w", bcrypt.ErrPasswordTooLong), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		fail(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "failed")
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}

	w := httptest.NewRecorder()
	fail(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"), "failed")
	assert.Equal(t, "internal server error", decodeBody[models.ErrorResponse](t, w).Message)
}
