package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/storage"
	"github.com/civicconnect/civicconnect-services/internal/validation"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

// maxUploadMemory is the part of a multipart form kept in memory.
const maxUploadMemory = 32 << 20

var errImagesDisabled = &HTTPError{Status: http.StatusServiceUnavailable, Message: "image storage is not configured"}

// CreateComplaintService accepts JSON or a multipart form whose "images"
// files are stored as BEFORE_WORK photos.
func (svc *Service) CreateComplaintService(w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}

	var req models.CreateComplaintRequest
	var files []*multipart.FileHeader
	if isMultipart(r) {
		req, files, err = parseComplaintForm(r)
	} else {
		err = decode(r, &req)
	}
	if err != nil {
		fail(w, r, err, "Invalid complaint request")
		return
	}

	if len(files) > 0 && svc.Images == nil {
		fail(w, r, errImagesDisabled, "Images uploaded without storage")
		return
	}
	types := make([]string, len(files))
	for i, fh := range files {
		if types[i], err = checkImage(fh); err != nil {
			fail(w, r, err, "Invalid complaint image")
			return
		}
	}

	wardID := req.WardID
	if wardID == 0 {
		user, err := svc.currentUser(r.Context(), r)
		if err != nil {
			fail(w, r, err, "Failed to retrieve citizen")
			return
		}
		if user.WardID == nil {
			fail(w, r, httpError(http.StatusBadRequest, "wardId is required"), "Citizen has no ward")
			return
		}
		wardID = *user.WardID
	} else if err := svc.requireWard(r, wardID); err != nil {
		fail(w, r, err, "Invalid ward")
		return
	}

	dept, err := svc.DB.GetDepartment(r.Context(), req.DepartmentID)
	if err != nil {
		fail(w, r, err, "Database error retrieving department")
		return
	}
	if dept == nil {
		fail(w, r, httpError(http.StatusBadRequest, "department %d does not exist", req.DepartmentID), "Invalid department")
		return
	}

	cm, err := svc.DB.CreateComplaint(r.Context(), &models.Complaint{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		WardID:       wardID,
		DepartmentID: req.DepartmentID,
		CitizenID:    claims.UserID(),
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		fail(w, r, err, "Failed to create complaint")
		return
	}
	svc.publish(r.Context(), complaintEvent(events.TypeCreated, cm, "", claims.UserID(), ""))

	for i, fh := range files {
		if _, err := svc.storeImage(r.Context(), cm.ID, claims.UserID(), catalog.StageBeforeWork, types[i], fh); err != nil {
			logger.Error().Err(err).Int64("complaint_id", cm.ID).Str("file", fh.Filename).Msg("Failed to store complaint image")
		}
	}

	cm = svc.autoAssign(r.Context(), cm)

	logger.Info().Int64("complaint_id", cm.ID).Int("images", len(files)).Msg("Complaint created")
	svc.decorate(cm, claims.Role)
	WriteResponse(w, http.StatusCreated, cm, fmt.Sprintf("%s/complaints/%d/details", svc.Config.BasePath, cm.ID))
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseComplaintForm(r *http.Request) (models.CreateComplaintRequest, []*multipart.FileHeader, error) {
	var req models.CreateComplaintRequest
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return req, nil, httpError(http.StatusBadRequest, "invalid multipart form")
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Location = r.FormValue("location")

	var err error
	if req.DepartmentID, err = formInt(r, "departmentId"); err != nil {
		return req, nil, err
	}
	if req.WardID, err = formInt(r, "wardId"); err != nil {
		return req, nil, err
	}
	if req.Latitude, err = formFloat(r, "latitude"); err != nil {
		return req, nil, err
	}
	if req.Longitude, err = formFloat(r, "longitude"); err != nil {
		return req, nil, err
	}
	if err := validation.Validate(req); err != nil {
		return req, nil, err
	}
	return req, r.MultipartForm.File["images"], nil
}

func formInt(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, httpError(http.StatusBadRequest, "invalid %s: %q", name, raw)
	}
	return v, nil
}

func formFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, "invalid %s: %q", name, raw)
	}
	return &v, nil
}

// checkImage enforces the size limit and returns the content type sniffed
// from the file itself. The type declared by the client is ignored.
func checkImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > storage.MaxImageBytes {
		return "", httpError(http.StatusRequestEntityTooLarge, "image %s exceeds %d MB", fh.Filename, storage.MaxImageBytes>>20)
	}
	contentType, err := sniffImage(fh)
	if err != nil {
		return "", err
	}
	if !storage.AllowedContentType(contentType) {
		return "", fmt.Errorf("%s: %w", fh.Filename, storage.ErrUnsupportedType)
	}
	return contentType, nil
}

func sniffImage(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading upload: %w", err)
	}
	ct, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "", nil
	}
	return ct, nil
}

// storeImage uploads one photo and records it. The object is removed again
// when the metadata cannot be written.
func (svc *Service) storeImage(ctx context.Context, complaintID, uploader int64, stage, contentType string, fh *multipart.FileHeader) (*models.ComplaintImage, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	key, err := svc.Images.Put(ctx, complaintID, contentType, f, fh.Size)
	if err != nil {
		return nil, err
	}

	img, err := svc.DB.AddImage(ctx, &models.ComplaintImage{
		ComplaintID: complaintID,
		Stage:       stage,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   fh.Size,
		UploadedBy:  uploader,
	})
	if err != nil {
		if delErr := svc.Images.Delete(ctx, key); delErr != nil {
			zerolog.Ctx(ctx).Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned image")
		}
		return nil, err
	}
	svc.imageURL(img)
	return img, nil
}

func (svc *Service) imageURL(img *models.ComplaintImage) {
	img.URL = fmt.Sprintf("%s/complaints/%d/images/%d", svc.Config.BasePath, img.ComplaintID, img.ID)
}

// MyComplaintsService lists the caller's own complaints.
func (svc *Service) MyComplaintsService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid complaint filter")
		return
	}
	f.CitizenID = ptr(claims.UserID())
	svc.listComplaints(w, r, f, claims.Role)
}

func (svc *Service) listComplaints(w http.ResponseWriter, r *http.Request, f models.ComplaintFilter, role string) {
	page, err := svc.DB.ListComplaints(r.Context(), f)
	if err != nil {
		fail(w, r, err, "Database error retrieving complaints")
		return
	}
	svc.decorateAll(page.Content, role)
	WriteResponse(w, http.StatusOK, page)
}

func (svc *Service) CitizenDashboardService(w http.ResponseWriter, r *http.Request) {
	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve citizen")
		return
	}
	ctx := r.Context()
	mine := models.ComplaintFilter{CitizenID: &user.ID}

	counts, err := svc.DB.CountComplaintsByStatus(ctx, mine)
	if err != nil {
		fail(w, r, err, "Database error counting complaints")
		return
	}
	mine.Pagination = models.Pagination{Size: 5}
	recent, err := svc.DB.ListComplaints(ctx, mine)
	if err != nil {
		fail(w, r, err, "Database error retrieving complaints")
		return
	}
	unread, err := svc.DB.CountUnread(ctx, user.ID)
	if err != nil {
		fail(w, r, err, "Database error counting notifications")
		return
	}
	svc.decorateAll(recent.Content, user.Role)

	dash := models.CitizenDashboard{
		TotalComplaints:     counts.Total(),
		ByStatus:            counts,
		RecentComplaints:    recent.Content,
		UnreadNotifications: unread,
		ProfileCompletion:   validation.ProfileCompletion(profileOf(user), user.Role),
	}
	for status, n := range counts {
		if workflow.Open(status) {
			dash.OpenComplaints += n
		} else if status != catalog.StatusRejected {
			dash.ResolvedComplaints += n
		}
	}
	WriteResponse(w, http.StatusOK, dash)
}

// ComplaintSLAService returns the SLA state of one complaint.
func (svc *Service) ComplaintSLAService(w http.ResponseWriter, r *http.Request) {
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	WriteResponse(w, http.StatusOK, svc.SLA.Evaluate(cm.SLAInput(), svc.now()))
}

// complaintFromPath loads the {id} complaint for the caller, writing the
// error response itself when that fails.
func (svc *Service) complaintFromPath(w http.ResponseWriter, r *http.Request) (*models.Complaint, bool) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return nil, false
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid complaint id")
		return nil, false
	}
	cm, err := svc.loadComplaint(r.Context(), claims, id)
	if err != nil {
		fail(w, r, err, "Failed to load complaint")
		return nil, false
	}
	svc.decorate(cm, claims.Role)
	return cm, true
}

func (svc *Service) GetComplaintService(w http.ResponseWriter, r *http.Request) {
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	WriteResponse(w, http.StatusOK, cm)
}

func (svc *Service) ComplaintDetailsService(w http.ResponseWriter, r *http.Request) {
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	timeline, err := svc.DB.GetTimeline(ctx, cm.ID)
	if err != nil {
		fail(w, r, err, "Database error retrieving timeline")
		return
	}
	images, err := svc.DB.ListImages(ctx, cm.ID)
	if err != nil {
		fail(w, r, err, "Database error retrieving images")
		return
	}
	for i := range images {
		svc.imageURL(&images[i])
	}
	feedback, err := svc.DB.GetFeedback(ctx, cm.ID)
	if err != nil {
		fail(w, r, err, "Database error retrieving feedback")
		return
	}

	WriteResponse(w, http.StatusOK, models.ComplaintDetails{
		Complaint: *cm,
		Timeline:  timeline,
		Images:    images,
		Feedback:  feedback,
	})
}

func (svc *Service) TimelineService(w http.ResponseWriter, r *http.Request) {
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	timeline, err := svc.DB.GetTimeline(r.Context(), cm.ID)
	if err != nil {
		fail(w, r, err, "Database error retrieving timeline")
		return
	}
	WriteResponse(w, http.StatusOK, timeline)
}

// ReopenService lets the citizen reopen a closed complaint with a reason,
// within the configured window after closing.
func (svc *Service) ReopenService(w http.ResponseWriter, r *http.Request) {
	var req models.ReopenRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid reopen request")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFrom(r)

	window := svc.Config.Workflow.ReopenWindow.Duration
	if cm.Status == catalog.StatusClosed && cm.ClosedAt != nil && svc.now().Sub(*cm.ClosedAt) > window {
		fail(w, r, httpError(http.StatusConflict, "complaints can only be reopened within %d days of closing",
			int(window.Hours()/24)), "Reopen window passed")
		return
	}

	updated, err := svc.transition(r.Context(), claims, cm, workflow.ActionReopen, req.Reason, nil)
	if err != nil {
		fail(w, r, err, "Failed to reopen complaint")
		return
	}
	updated = svc.autoAssign(r.Context(), updated)

	svc.decorate(updated, claims.Role)
	WriteResponse(w, http.StatusOK, updated)
}

// FeedbackService records the citizen's single rating of a finished complaint.
func (svc *Service) FeedbackService(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid feedback")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFrom(r)

	if claims.Role != catalog.RoleCitizen || cm.CitizenID != claims.UserID() {
		fail(w, r, httpError(http.StatusForbidden, "only the citizen who raised the complaint can give feedback"), "Feedback rejected")
		return
	}
	if cm.Status != catalog.StatusClosed && cm.Status != catalog.StatusApproved {
		fail(w, r, httpError(http.StatusConflict, "feedback can only be given once the complaint is approved or closed"), "Feedback rejected")
		return
	}

	fb, err := svc.DB.AddFeedback(r.Context(), &models.Feedback{
		ComplaintID: cm.ID,
		CitizenID:   claims.UserID(),
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
	})
	if err != nil {
		if isConflictErr(err) {
			fail(w, r, httpError(http.StatusConflict, "feedback has already been submitted for this complaint"), "Feedback rejected")
			return
		}
		fail(w, r, err, "Failed to store feedback")
		return
	}

	svc.publish(r.Context(), complaintEvent(events.TypeFeedback, cm, "", claims.UserID(),
		fmt.Sprintf("%d/5 %s", fb.Rating, fb.Comment)))
	WriteResponse(w, http.StatusCreated, fb)
}

// UploadImageService stores a photo sent as the multipart "image" file with
// a "stage" field.
func (svc *Service) UploadImageService(w http.ResponseWriter, r *http.Request) {
	if svc.Images == nil {
		fail(w, r, errImagesDisabled, "Image upload without storage")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFrom(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		fail(w, r, httpError(http.StatusBadRequest, "invalid multipart form"), "Invalid image upload")
		return
	}
	stage := strings.ToUpper(strings.TrimSpace(r.FormValue("stage")))
	if stage == "" {
		stage = catalog.StageBeforeWork
	}
	if !catalog.ValidImageStage(stage) {
		fail(w, r, httpError(http.StatusBadRequest, "invalid image stage: %q", stage), "Invalid image upload")
		return
	}
	if claims.Role == catalog.RoleCitizen && stage != catalog.StageBeforeWork {
		fail(w, r, httpError(http.StatusForbidden, "citizens can only upload %s photos", catalog.StageBeforeWork), "Invalid image upload")
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) != 1 {
		fail(w, r, httpError(http.StatusBadRequest, "exactly one image file is required"), "Invalid image upload")
		return
	}
	contentType, err := checkImage(files[0])
	if err != nil {
		fail(w, r, err, "Invalid image upload")
		return
	}

	img, err := svc.storeImage(r.Context(), cm.ID, claims.UserID(), stage, contentType, files[0])
	if err != nil {
		fail(w, r, err, "Failed to store image")
		return
	}
	WriteResponse(w, http.StatusCreated, img, img.URL)
}

func (svc *Service) ListImagesService(w http.ResponseWriter, r *http.Request) {
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	images, err := svc.DB.ListImages(r.Context(), cm.ID)
	if err != nil {
		fail(w, r, err, "Database error retrieving images")
		return
	}
	for i := range images {
		svc.imageURL(&images[i])
	}
	WriteResponse(w, http.StatusOK, images)
}

// GetImageService streams the bytes of one photo.
func (svc *Service) GetImageService(w http.ResponseWriter, r *http.Request) {
	if svc.Images == nil {
		fail(w, r, errImagesDisabled, "Image download without storage")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		fail(w, r, err, "Invalid image id")
		return
	}

	img, err := svc.DB.GetImage(r.Context(), cm.ID, imageID)
	if err != nil {
		fail(w, r, err, "Database error retrieving image")
		return
	}
	if img == nil {
		fail(w, r, httpError(http.StatusNotFound, "image %d not found", imageID), "Image not found")
		return
	}

	body, contentType, err := svc.Images.Get(r.Context(), img.ObjectKey)
	if err != nil {
		fail(w, r, err, "Failed to read image")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = img.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Int64("image_id", imageID).Msg("Image stream interrupted")
	}
}
