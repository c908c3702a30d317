package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/city-reporter-api/api"
	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// Report exported for testing purposes
type Report struct {
	Svc *reporting.Service
}

type statusRequest struct {
	Status string `json:"status"`
}

type adminRequest struct {
	AdminID string `json:"adminId"`
}

type resolutionRequest struct {
	Status           string `json:"status"`
	ResolutionStatus string `json:"resolutionStatus"`
	AdminID          string `json:"adminId"`
}

type adminCommentRequest struct {
	Comment string `json:"comment"`
	AdminID string `json:"adminId"`
}

func reportID(r *http.Request) string {
	return mux.Vars(r)["report_id"]
}

// checkAdmin writes a 403 when the bearer token belongs to another admin
func checkAdmin(w http.ResponseWriter, r *http.Request, adminID string) bool {
	if err := api.CheckAdmin(r, adminID); err != nil {
		config.ErrorKindStatus(err.Error(), "forbidden", http.StatusForbidden, w, err)
		return false
	}
	return true
}

// SubmitReportHandler accepts a multipart citizen report, stores it and
// notifies the selected offices
func (rp Report) SubmitReportHandler(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	photo, ok := photoFromForm(w, r)
	if !ok {
		return
	}

	req, err := reporting.ParseSubmission(
		r.FormValue("description"),
		r.FormValue("location"),
		r.FormValue("offices"),
		r.FormValue("userInfo"),
		photo,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := rp.Svc.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message": fmt.Sprintf("Report submitted successfully! Emails sent to %d of %d office(s).", res.SuccessfulEmails, res.TotalEmails),
		"data":    res,
	})
}

func writePage(w http.ResponseWriter, page *reporting.ReportPage, extra envelope) {
	body := envelope{"count": page.Count, "total": page.Total, "reports": page.Reports}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// ReportsHandler lists reports, newest first
func (rp Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := databases.ReportFilter{
		Status:           models.ReportStatus(q.Get("status")),
		ResolutionStatus: models.ResolutionStatus(q.Get("resolutionStatus")),
	}
	page, err := rp.Svc.ListReports(r.Context(), filter, pageFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, page, nil)
}

// ReportsByPlaceHandler lists the reports of one city, district or province
func (rp Report) ReportsByPlaceHandler(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		place := strings.TrimSpace(mux.Vars(r)[field])
		var filter databases.ReportFilter
		switch field {
		case "city":
			filter.City = place
		case "district":
			filter.District = place
		case "province":
			filter.Province = place
		}
		page, err := rp.Svc.ListReports(r.Context(), filter, pageFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writePage(w, page, envelope{field: place})
	}
}

// ReportsByUserHandler lists the reports a user submitted
func (rp Report) ReportsByUserHandler(w http.ResponseWriter, r *http.Request) {
	page, err := rp.Svc.ReportsByUser(r.Context(), mux.Vars(r)["user_id"], pageFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, page, nil)
}

// NearbyReportsHandler lists reports within maxDistance meters of a point
func (rp Report) NearbyReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		badRequest(w, "latitude and longitude are required", nil)
		return
	}
	radius := reporting.DefaultNearbyRadius
	if v := q.Get("maxDistance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 {
			badRequest(w, "maxDistance must be a positive number of meters", err)
			return
		}
		radius = d
	}

	reports, err := rp.Svc.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(reports), "radius": radius, "reports": reports})
}

// GeoJSONHandler renders reports as a GeoJSON FeatureCollection
func (rp Report) GeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := databases.ReportFilter{
		Status:           models.ReportStatus(q.Get("status")),
		ResolutionStatus: models.ResolutionStatus(q.Get("resolutionStatus")),
		City:             q.Get("city"),
	}
	fc, err := rp.Svc.GeoJSON(r.Context(), filter, pageFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// ReportHandler returns a report by ID
func (rp Report) ReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := rp.Svc.GetReport(r.Context(), reportID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"report": report})
}

// DeleteReportHandler removes a report
func (rp Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	if err := rp.Svc.DeleteReport(r.Context(), reportID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Report deleted successfully"})
}

// UpdateStatusHandler sets the coarse report status
func (rp Report) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := rp.Svc.SetStatus(r.Context(), reportID(r), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Status updated successfully", "report": report})
}

// AssignAdminHandler makes an admin responsible for the report
func (rp Report) AssignAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkAdmin(w, r, req.AdminID) {
		return
	}
	report, err := rp.Svc.AssignAdmin(r.Context(), reportID(r), req.AdminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Admin assigned successfully", "report": report})
}

// ResolutionStatusHandler moves the report through the resolution workflow
func (rp Report) ResolutionStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req resolutionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := req.Status
	if status == "" {
		status = req.ResolutionStatus
	}
	if !checkAdmin(w, r, req.AdminID) {
		return
	}
	report, err := rp.Svc.UpdateResolutionStatus(r.Context(), reportID(r), req.AdminID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Status updated successfully", "report": report})
}

// AdminCommentHandler appends an admin comment to the action log
func (rp Report) AdminCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req adminCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkAdmin(w, r, req.AdminID) {
		return
	}
	report, err := rp.Svc.AddAdminComment(r.Context(), reportID(r), req.AdminID, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Comment added successfully", "report": report})
}

// EvidencePhotoHandler uploads a photo taken while working the report
func (rp Report) EvidencePhotoHandler(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	photo, ok := photoFromForm(w, r)
	if !ok {
		return
	}
	adminID := r.FormValue("adminId")
	if !checkAdmin(w, r, adminID) {
		return
	}
	report, err := rp.Svc.AddEvidencePhoto(r.Context(), reportID(r), adminID, photo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Evidence photo uploaded successfully", "report": report})
}

// ActionsHandler returns the action log, newest first
func (rp Report) ActionsHandler(w http.ResponseWriter, r *http.Request) {
	actions, err := rp.Svc.ListActions(r.Context(), reportID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"totalActions": len(actions), "actions": actions})
}
