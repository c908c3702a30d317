package reporting

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
)

// maxTransitionAttempts bounds retries when another writer changes the
// resolution status between our read and our conditional write
const maxTransitionAttempts = 3

func adminAction(admin *models.Admin, t models.ActionType, at time.Time) models.AdminAction {
	return models.AdminAction{
		AdminID:       admin.ID,
		AdminName:     admin.Name,
		AdminPosition: admin.Position,
		ActionType:    t,
		Timestamp:     at,
	}
}

// findReport loads a report or fails with not-found
func (s *Service) findReport(ctx context.Context, op string, id primitive.ObjectID) (*models.IssueReport, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "report not found", err)
	}
	return report, nil
}

// AssignAdmin makes the admin responsible for the report, replacing any
// earlier assignment. Assignment is not recorded in the action log.
func (s *Service) AssignAdmin(ctx context.Context, reportID, adminID string) (*models.IssueReport, error) {
	const op = "assign admin"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	admin, err := s.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.Assign(ctx, rid, *admin, s.timestamp())
	if err != nil {
		return nil, storeError(op, "report not found", err)
	}
	zap.S().Infow("admin assigned", "reportID", reportID, "adminID", admin.ID.Hex())
	s.publish(EventAdminAssigned, report)
	return report, nil
}

// UpdateResolutionStatus moves the report to status and logs the change with
// the status it actually replaced. Any status may follow any other,
// including itself.
func (s *Service) UpdateResolutionStatus(ctx context.Context, reportID, adminID, status string) (*models.IssueReport, error) {
	const op = "update resolution status"

	to := models.ResolutionStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return nil, validationError(op, "invalid status", ErrInvalidStatus)
	}
	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	admin, err := s.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	current, err := s.findReport(ctx, op, rid)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		from := current.ResolutionStatus
		action := adminAction(admin, models.ActionStatusUpdate, s.timestamp())
		action.StatusChange = &models.StatusChange{From: from, To: to}

		report, err := s.reports.TransitionResolution(ctx, rid, from, to, action)
		if err == nil {
			zap.S().Infow("resolution status updated", "reportID", reportID, "from", from, "to", to, "adminID", admin.ID.Hex())
			s.publish(EventResolutionChanged, report)
			return report, nil
		}
		if !databases.IsNotFound(err) {
			return nil, persistenceError(op, "failed to update status", err)
		}
		// lost a race, or the report is gone
		if current, err = s.findReport(ctx, op, rid); err != nil {
			return nil, err
		}
	}
	return nil, &Error{Kind: KindPersistence, Op: op, Message: "report is being updated concurrently, try again", Retryable: true}
}

// AddAdminComment appends a comment to the report's action log
func (s *Service) AddAdminComment(ctx context.Context, reportID, adminID, comment string) (*models.IssueReport, error) {
	const op = "add admin comment"

	comment = strings.TrimSpace(comment)
	if comment == "" || strings.TrimSpace(adminID) == "" {
		return nil, validationError(op, "comment and admin ID are required", nil)
	}
	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	admin, err := s.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	action := adminAction(admin, models.ActionComment, s.timestamp())
	action.Comment = comment
	report, err := s.reports.AppendAdminAction(ctx, rid, action)
	if err != nil {
		return nil, storeError(op, "report not found", err)
	}
	s.publish(EventAdminComment, report)
	return report, nil
}

// AddEvidencePhoto uploads a photo taken by an admin and records it together
// with a photo_upload action. Nothing is recorded if the upload fails.
func (s *Service) AddEvidencePhoto(ctx context.Context, reportID, adminID string, photo blobstore.Blob) (*models.IssueReport, error) {
	const op = "add evidence photo"

	if len(photo.Data) == 0 {
		return nil, validationError(op, "photo is required", ErrPhotoRequired)
	}
	if strings.TrimSpace(adminID) == "" {
		return nil, validationError(op, "admin ID is required", nil)
	}
	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	admin, err := s.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findReport(ctx, op, rid); err != nil {
		return nil, err
	}

	obj, err := s.upload(ctx, op, photo)
	if err != nil {
		zap.S().Errorw("evidence photo upload failed", "reportID", reportID, "error", err)
		return nil, err
	}

	now := s.timestamp()
	evidence := models.EvidencePhoto{URL: obj.URL, Path: obj.Path, UploadedBy: admin.Name, UploadedAt: now}
	action := adminAction(admin, models.ActionPhotoUpload, now)
	action.PhotoURL = obj.URL
	action.PhotoPath = obj.Path

	report, err := s.reports.AppendEvidence(ctx, rid, evidence, action)
	if err != nil {
		zap.S().Errorw("failed to record evidence photo, photo left orphaned", "reportID", reportID, "photoPath", obj.Path, "error", err)
		return nil, storeError(op, "report not found", err)
	}
	s.publish(EventEvidenceAdded, report)
	return report, nil
}

// SetStatus changes the coarse report status. It is independent of the
// resolution status and is not logged.
func (s *Service) SetStatus(ctx context.Context, reportID, status string) (*models.IssueReport, error) {
	const op = "set report status"

	st := models.ReportStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, validationError(op, "invalid status", ErrInvalidStatus)
	}
	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.SetStatus(ctx, rid, st, s.timestamp())
	if err != nil {
		return nil, storeError(op, "report not found", err)
	}
	s.publish(EventStatusChanged, report)
	return report, nil
}

// ListActions returns the report's action log, newest first
func (s *Service) ListActions(ctx context.Context, reportID string) ([]models.AdminAction, error) {
	const op = "list admin actions"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	report, err := s.findReport(ctx, op, rid)
	if err != nil {
		return nil, err
	}
	// actions are appended in order, so the stored log reversed is newest first
	n := len(report.AdminActions)
	actions := make([]models.AdminAction, n)
	for i, a := range report.AdminActions {
		actions[n-1-i] = a
	}
	return actions, nil
}

// DeleteReport removes a report. Its blobs are left in the store.
func (s *Service) DeleteReport(ctx context.Context, reportID string) error {
	const op = "delete report"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return err
	}
	n, err := s.reports.DeleteByID(ctx, rid)
	if err != nil {
		return persistenceError(op, "failed to delete report", err)
	}
	if n == 0 {
		return notFoundError(op, "report not found")
	}
	zap.S().Infow("report deleted", "reportID", reportID)
	s.events.Publish(Event{Type: EventReportDeleted, ReportID: reportID, At: s.timestamp()})
	return nil
}
