package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/notify"
	templates "github.com/linesmerrill/city-reporter-api/templates/html"
)

const unknownPlace = "Unknown"

// ReporterInput identifies the citizen submitting a report
type ReporterInput struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (r ReporterInput) displayName() string {
	if n := strings.TrimSpace(r.FullName); n != "" {
		return n
	}
	return strings.TrimSpace(r.Name)
}

// LocationInput is where the reporter says the issue is
type LocationInput struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	District    string   `json:"district"`
	Province    string   `json:"province"`
	FullAddress string   `json:"fullAddress"`
}

// OfficeInput is one office the report should be routed to
type OfficeInput struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmitRequest is a fully parsed citizen submission
type SubmitRequest struct {
	Description string
	Location    LocationInput
	Offices     []OfficeInput
	Reporter    ReporterInput
	Photo       blobstore.Blob
}

// SubmissionResult summarises a stored report and its notification outcomes
type SubmissionResult struct {
	ReportID         primitive.ObjectID      `json:"reportId"`
	Reporter         models.ReporterSnapshot `json:"reporter"`
	PhotoURL         string                  `json:"photoUrl"`
	Location         models.Location         `json:"location"`
	Offices          []models.OfficeSnapshot `json:"offices"`
	EmailsSent       []models.EmailDelivery  `json:"emailsSent"`
	TotalEmails      int                     `json:"totalEmails"`
	SuccessfulEmails int                     `json:"successfulEmails"`
	DeliveryLogError string                  `json:"deliveryLogError,omitempty"`
}

// ParseSubmission builds a request from the raw multipart fields. The JSON
// fields must be present and structurally valid.
func ParseSubmission(description, locationJSON, officesJSON, userInfoJSON string, photo blobstore.Blob) (SubmitRequest, error) {
	const op = "parse submission"

	if len(photo.Data) == 0 {
		return SubmitRequest{}, validationError(op, "photo is required", ErrPhotoRequired)
	}
	if strings.TrimSpace(description) == "" || strings.TrimSpace(locationJSON) == "" ||
		strings.TrimSpace(officesJSON) == "" || strings.TrimSpace(userInfoJSON) == "" {
		return SubmitRequest{}, validationError(op, "missing required fields", nil)
	}

	req := SubmitRequest{Description: description, Photo: photo}
	if err := json.Unmarshal([]byte(locationJSON), &req.Location); err != nil {
		return SubmitRequest{}, validationError(op, "location is not valid JSON", err)
	}
	if err := json.Unmarshal([]byte(officesJSON), &req.Offices); err != nil {
		return SubmitRequest{}, validationError(op, "offices is not a valid JSON list", err)
	}
	if err := json.Unmarshal([]byte(userInfoJSON), &req.Reporter); err != nil {
		return SubmitRequest{}, validationError(op, "userInfo is not valid JSON", err)
	}
	return req, req.Validate()
}

// Validate checks the request in a fixed order so the first problem found is
// always the same one
func (r SubmitRequest) Validate() error {
	const op = "validate submission"

	if len(r.Photo.Data) == 0 {
		return validationError(op, "photo is required", ErrPhotoRequired)
	}
	if strings.TrimSpace(r.Description) == "" {
		return validationError(op, "description is required", nil)
	}
	loc := r.Location
	if loc.Latitude == nil || loc.Longitude == nil || strings.TrimSpace(loc.Address) == "" {
		return validationError(op, "location requires latitude, longitude and address", nil)
	}
	if !validCoordinate(*loc.Latitude, 90) || !validCoordinate(*loc.Longitude, 180) {
		return validationError(op, "location coordinates are out of range", nil)
	}
	if r.Reporter.displayName() == "" || strings.TrimSpace(r.Reporter.Email) == "" {
		return validationError(op, "reporter name and email are required", nil)
	}
	if !ValidEmail(NormalizeEmail(r.Reporter.Email)) {
		return validationError(op, "invalid reporter email format", nil)
	}
	if len(r.Offices) == 0 {
		return validationError(op, "at least one office must be selected", ErrNoOffices)
	}
	for i, o := range r.Offices {
		if _, ok := models.ParseOfficeType(o.Type); !ok {
			return validationError(op, fmt.Sprintf("office %d: type must be DS or PS", i+1), nil)
		}
		if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Email) == "" {
			return validationError(op, fmt.Sprintf("office %d: name and email are required", i+1), nil)
		}
	}
	return nil
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// Submit stores a new report and notifies every targeted office. Notification
// failures are recorded on the report and never fail the submission.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmissionResult, error) {
	const op = "submit report"

	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.ResolveOrCreateUser(ctx, req.Reporter.displayName(), req.Reporter.Email, req.Reporter.Phone)
	if err != nil {
		return nil, err
	}

	obj, err := s.upload(ctx, op, req.Photo)
	if err != nil {
		zap.S().Errorw("report photo upload failed", "userID", user.ID.Hex(), "error", err)
		return nil, err
	}

	report := buildReport(req, user, obj, s.timestamp())
	id, err := s.reports.InsertOne(ctx, report)
	if err != nil {
		zap.S().Errorw("failed to save report, photo left orphaned", "photoPath", obj.Path, "error", err)
		return nil, persistenceError(op, "failed to save report", err)
	}
	report.ID = id
	zap.S().Infow("report saved", "reportID", id.Hex(), "city", report.Location.City, "offices", len(report.Offices))

	// the report exists now; finish the fan-out even if the caller goes away
	bg := context.WithoutCancel(ctx)
	deliveries := s.notifyOffices(bg, report)

	result := &SubmissionResult{
		ReportID:    id,
		Reporter:    report.Reporter,
		PhotoURL:    report.PhotoURL,
		Location:    report.Location,
		Offices:     report.Offices,
		EmailsSent:  deliveries,
		TotalEmails: len(deliveries),
	}
	for _, d := range deliveries {
		if d.Status == models.DeliverySuccess {
			result.SuccessfulEmails++
		}
	}

	if err := s.reports.AppendEmailDeliveries(bg, id, deliveries); err != nil {
		zap.S().Errorw("failed to record email deliveries", "reportID", id.Hex(), "error", err)
		result.DeliveryLogError = "notification outcomes could not be recorded on the report"
	}
	report.EmailsSent = deliveries

	zap.S().Infow("submission complete",
		"reportID", id.Hex(),
		"totalEmails", result.TotalEmails,
		"successfulEmails", result.SuccessfulEmails)

	s.publish(EventReportSubmitted, &report)
	return result, nil
}

func buildReport(req SubmitRequest, user *models.User, photo blobstore.Object, now time.Time) models.IssueReport {
	loc := req.Location
	lat, lon := *loc.Latitude, *loc.Longitude
	address := strings.TrimSpace(loc.Address)
	fullAddress := strings.TrimSpace(loc.FullAddress)
	if fullAddress == "" {
		fullAddress = address
	}

	offices := make([]models.OfficeSnapshot, 0, len(req.Offices))
	for _, o := range req.Offices {
		t, _ := models.ParseOfficeType(o.Type)
		offices = append(offices, models.OfficeSnapshot{
			Type:  t,
			Name:  strings.TrimSpace(o.Name),
			Email: NormalizeEmail(o.Email),
		})
	}

	return models.IssueReport{
		Reporter: models.ReporterSnapshot{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
		},
		Description: strings.TrimSpace(req.Description),
		Location: models.Location{
			Latitude:    lat,
			Longitude:   lon,
			Address:     address,
			City:        orUnknown(loc.City),
			District:    orUnknown(loc.District),
			Province:    orUnknown(loc.Province),
			FullAddress: fullAddress,
			Geolocation: models.NewGeoPoint(lat, lon),
		},
		PhotoURL:         photo.URL,
		PhotoPath:        photo.Path,
		Offices:          offices,
		EmailsSent:       []models.EmailDelivery{},
		ResolutionStatus: models.ResolutionPending,
		AdminActions:     []models.AdminAction{},
		EvidencePhotos:   []models.EvidencePhoto{},
		PublicComments:   []models.PublicComment{},
		Status:           models.StatusSubmitted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknownPlace
	}
	return s
}

// notifyOffices sends one email per office concurrently. The outcome for
// office i is always at index i.
func (s *Service) notifyOffices(ctx context.Context, report models.IssueReport) []models.EmailDelivery {
	deliveries := make([]models.EmailDelivery, len(report.Offices))

	var g errgroup.Group
	g.SetLimit(s.opts.NotifyConcurrency)
	for i, office := range report.Offices {
		i, office := i, office
		g.Go(func() error {
			deliveries[i] = s.notifyOffice(ctx, report, office)
			return nil
		})
	}
	_ = g.Wait()
	return deliveries
}

func (s *Service) notifyOffice(ctx context.Context, report models.IssueReport, office models.OfficeSnapshot) models.EmailDelivery {
	nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()

	subject, html, text := templates.RenderIssueReportEmail(templates.IssueReportEmail{
		OfficeName:    office.Name,
		ReporterName:  report.Reporter.Name,
		ReporterEmail: report.Reporter.Email,
		Description:   report.Description,
		City:          report.Location.City,
		District:      report.Location.District,
		Province:      report.Location.Province,
		Address:       report.Location.Address,
		Latitude:      report.Location.Latitude,
		Longitude:     report.Location.Longitude,
		PhotoURL:      report.PhotoURL,
		ReportedAt:    report.CreatedAt,
	})

	d := s.notifier.Send(nctx, notify.Message{
		To:        office.Email,
		ToName:    office.Name,
		Subject:   subject,
		HTML:      html,
		PlainText: text,
	})

	out := models.EmailDelivery{Email: office.Email, SentAt: s.timestamp()}
	switch {
	case d.Success:
		out.Status = models.DeliverySuccess
		out.MessageID = d.MessageID
	case nctx.Err() == context.DeadlineExceeded:
		out.Status = models.DeliveryFailed
		out.Error = "notification timed out"
	default:
		out.Status = models.DeliveryFailed
		out.Error = d.Error
		if out.Error == "" {
			out.Error = "delivery failed"
		}
	}
	if out.Status == models.DeliveryFailed {
		zap.S().Warnw("office notification failed", "reportID", report.ID.Hex(), "office", office.Email, "error", out.Error)
	}
	return out
}
