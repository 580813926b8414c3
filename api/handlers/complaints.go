package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary File a complaint
// @Description Accepts JSON, or multipart/form-data with the complaint fields and any number of "images" files. When wardId is omitted the citizen's own ward is used.
// @Tags citizens complaints
// @Accept json,mpfd
// @Produce json
// @Param body body models.CreateComplaintRequest true "Complaint"
// @Success 201 {object} models.Complaint
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 415 {object} models.ErrorResponse
// @Router /citizens/complaints [post]
func CreateComplaint(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateComplaintService(w, r)
	}
}

// @Summary List the caller's complaints
// @Tags citizens complaints
// @Produce json
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(10)
// @Param status query string false "Status filter"
// @Success 200 {object} models.Page[models.Complaint]
// @Router /citizen/my-complaints [get]
func MyComplaints(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MyComplaintsService(w, r)
	}
}

// @Summary Citizen dashboard
// @Tags citizens dashboards
// @Produce json
// @Success 200 {object} models.CitizenDashboard
// @Router /citizen/dashboard [get]
func CitizenDashboard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CitizenDashboardService(w, r)
	}
}

// @Summary SLA state of a complaint
// @Tags citizens complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} sla.Result
// @Failure 404 {object} models.ErrorResponse
// @Router /citizens/complaints/{id}/sla [get]
func ComplaintSLA(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ComplaintSLAService(w, r)
	}
}

// GetComplaint serves a single complaint to any role that may view it.
func GetComplaint(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.GetComplaintService(w, r)
	}
}

// @Summary Complaint details
// @Description The complaint with its timeline, images and feedback.
// @Tags complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} models.ComplaintDetails
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /complaints/{id}/details [get]
func ComplaintDetails(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ComplaintDetailsService(w, r)
	}
}

// @Summary Complaint timeline
// @Tags complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {array} models.TimelineEntry
// @Router /complaints/{id}/timeline [get]
func Timeline(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.TimelineService(w, r)
	}
}

// @Summary Reopen a closed complaint
// @Tags complaints citizens
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.ReopenRequest true "Reason"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /complaints/{id}/reopen [put]
func Reopen(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ReopenService(w, r)
	}
}

// @Summary Rate a completed complaint
// @Description Only the citizen who filed the complaint may rate it, once, after it is approved or closed.
// @Tags complaints citizens
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.FeedbackRequest true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /complaints/{id}/feedback [post]
func Feedback(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.FeedbackService(w, r)
	}
}

// @Summary Attach an image to a complaint
// @Tags complaints images
// @Accept mpfd
// @Produce json
// @Param id path int true "Complaint ID"
// @Param image formData file true "Image"
// @Param stage formData string false "BEFORE_WORK, IN_PROGRESS or AFTER_RESOLUTION"
// @Success 201 {object} models.ComplaintImage
// @Failure 413 {object} models.ErrorResponse
// @Failure 415 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /complaints/{id}/images [post]
func UploadImage(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UploadImageService(w, r)
	}
}

// @Summary List complaint images
// @Tags complaints images
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {array} models.ComplaintImage
// @Router /complaints/{id}/images [get]
func ListImages(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListImagesService(w, r)
	}
}

// @Summary Download a complaint image
// @Tags complaints images
// @Produce image/jpeg,image/png,image/webp
// @Param id path int true "Complaint ID"
// @Param imageId path int true "Image ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /complaints/{id}/images/{imageId} [get]
func GetImage(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.GetImageService(w, r)
	}
}
