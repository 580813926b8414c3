package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/civicconnect/civicconnect-services/api/middleware"
	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/storage"
	"github.com/civicconnect/civicconnect-services/internal/validation"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// HTTPError is an error that carries the status to answer with.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func httpError(status int, format string, args ...interface{}) *HTTPError {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most curent data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}

// HandleErrResponse writes err as an ErrorResponse with status.
func HandleErrResponse(w http.ResponseWriter, status int, err error) {
	body := models.ErrorResponse{Message: http.StatusText(status)}
	if err != nil {
		body.Message = err.Error()
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		body.Message = "Validation failed"
		body.Errors = fe
	}
	WriteResponse(w, status, body)
}

// fail maps err onto a status and writes it. Unexpected errors are logged and
// answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger := zerolog.Ctx(r.Context())

	var httpErr *HTTPError
	var fe validation.FieldErrors
	switch {
	case errors.As(err, &httpErr):
		logger.Warn().Int("status", httpErr.Status).Msg(httpErr.Message)
		HandleErrResponse(w, httpErr.Status, httpErr)
	case errors.As(err, &fe):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusBadRequest, fe)
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusBadRequest, validation.FieldErrors{"password": "password must not exceed 72 characters"})
	case errors.Is(err, db.ErrNotFound):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusNotFound, errors.New("resource not found"))
	case errors.Is(err, db.ErrConflict):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusConflict, errors.New("the request conflicts with the current state, please refresh and retry"))
	case errors.Is(err, workflow.ErrForbiddenRole):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusForbidden, err)
	case errors.Is(err, workflow.ErrInvalidTransition):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusConflict, err)
	case errors.Is(err, storage.ErrUnsupportedType):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, storage.ErrObjectNotFound):
		logger.Warn().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusNotFound, errors.New("image not found"))
	default:
		logger.Error().Err(err).Msg(msg)
		HandleErrResponse(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

var errUnauthorized = &HTTPError{Status: http.StatusUnauthorized, Message: "unauthorized: invalid claims"}

var errInactive = &HTTPError{Status: http.StatusForbidden, Message: "account is deactivated"}

func claimsFrom(r *http.Request) (authn.Claims, error) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return authn.Claims{}, errUnauthorized
	}
	return claims, nil
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validation.Validate(dst)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return httpError(http.StatusBadRequest, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return httpError(http.StatusBadRequest, "invalid request payload")
	}
	return nil
}

// pathID parses a numeric path variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httpError(http.StatusBadRequest, "invalid %s: %q", name, raw)
	}
	return id, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, "invalid %s: %q", name, raw)
	}
	return &v, nil
}

func pagination(r *http.Request) models.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return models.Pagination{Page: page, Size: size}.Normalize()
}

// complaintFilter reads the common list query parameters: page, size,
// status (comma separated), wardId, departmentId, q, from and to (YYYY-MM-DD).
func complaintFilter(r *http.Request) (models.ComplaintFilter, error) {
	q := r.URL.Query()
	f := models.ComplaintFilter{Pagination: pagination(r), Query: strings.TrimSpace(q.Get("q"))}

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if !catalog.ValidStatus(s) {
				return f, httpError(http.StatusBadRequest, "invalid status: %q", s)
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	var err error
	if f.WardID, err = queryInt64(r, "wardId"); err != nil {
		return f, err
	}
	if f.DepartmentID, err = queryInt64(r, "departmentId"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		return f, err
	}
	if f.To != nil {
		// inclusive end date
		end := f.To.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, "invalid %s date: %q", name, raw)
	}
	return &t, nil
}

// publish sends an event. Failures are logged; the state change that caused
// the event is already committed.
func (svc *Service) publish(ctx context.Context, event events.ComplaintEvent) {
	if svc.Publisher == nil {
		return
	}
	if err := svc.Publisher.Publish(event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event_type", event.Type).
			Int64("complaint_id", event.ComplaintID).Msg("Failed to publish event")
	}
}

func complaintEvent(eventType string, cm *models.Complaint, previous string, actorID int64, remarks string) events.ComplaintEvent {
	event := events.NewComplaintEvent(eventType, cm.ID)
	event.Title = cm.Title
	event.Status = cm.Status
	event.PreviousStatus = previous
	event.ActorID = actorID
	event.CitizenID = cm.CitizenID
	event.AssignedOfficerID = cm.AssignedOfficerID
	event.WardID = cm.WardID
	event.Remarks = remarks
	return event
}

// decorate attaches the SLA state and the actions the caller may take.
func (svc *Service) decorate(cm *models.Complaint, role string) {
	res := svc.SLA.Evaluate(cm.SLAInput(), svc.now())
	cm.SLA = &res
	cm.AllowedActions = workflow.AllowedActions(cm.Status, role)
}

func (svc *Service) decorateAll(list []models.Complaint, role string) {
	for i := range list {
		svc.decorate(&list[i], role)
	}
}

// canView reports whether the caller may see a complaint: its citizen, its
// assigned officer, a ward officer of its ward, or an admin.
func canView(claims authn.Claims, cm *models.Complaint) bool {
	uid := claims.UserID()
	switch claims.Role {
	case catalog.RoleAdmin:
		return true
	case catalog.RoleCitizen:
		return cm.CitizenID == uid
	case catalog.RoleDepartmentOfficer:
		return cm.AssignedOfficerID != nil && *cm.AssignedOfficerID == uid
	case catalog.RoleWardOfficer:
		return claims.WardID != nil && *claims.WardID == cm.WardID
	}
	return false
}

// loadComplaint fetches a complaint the caller may see.
func (svc *Service) loadComplaint(ctx context.Context, claims authn.Claims, id int64) (*models.Complaint, error) {
	cm, err := svc.DB.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return nil, httpError(http.StatusNotFound, "complaint %d not found", id)
	}
	if !canView(claims, cm) {
		return nil, httpError(http.StatusForbidden, "you do not have access to complaint %d", id)
	}
	return cm, nil
}

func ptr[T any](v T) *T {
	return &v
}

func isConflictErr(err error) bool {
	return errors.Is(err, db.ErrConflict)
}
