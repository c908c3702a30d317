package reporting

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
)

// ReportSummary is a short description of the report a comment was left on
type ReportSummary struct {
	ID          primitive.ObjectID `json:"id"`
	City        string             `json:"city"`
	District    string             `json:"district"`
	Province    string             `json:"province"`
	Description string             `json:"description"`
}

// CommentReceipt is returned after a public comment is stored
type CommentReceipt struct {
	Comment       models.PublicComment `json:"comment"`
	TotalComments int                  `json:"totalComments"`
	ReportInfo    ReportSummary        `json:"reportInfo"`
}

// CommentList is every public comment on a report
type CommentList struct {
	ReportID      primitive.ObjectID     `json:"reportId"`
	City          string                 `json:"city"`
	TotalComments int                    `json:"totalComments"`
	Comments      []models.PublicComment `json:"comments"`
}

// AddPublicComment stores an unauthenticated comment on a report
func (s *Service) AddPublicComment(ctx context.Context, reportID, name, email, text string) (*CommentReceipt, error) {
	const op = "add public comment"

	name, email, text = strings.TrimSpace(name), NormalizeEmail(email), strings.TrimSpace(text)
	if name == "" || email == "" || text == "" {
		return nil, validationError(op, "name, email, and comment text are required", nil)
	}
	if !ValidEmail(email) {
		return nil, validationError(op, "invalid email format", nil)
	}
	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}

	comment := models.PublicComment{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Text:      text,
		Timestamp: s.timestamp(),
	}
	report, err := s.reports.AppendPublicComment(ctx, rid, comment)
	if err != nil {
		return nil, storeError(op, "report not found", err)
	}
	zap.S().Infow("public comment added", "reportID", reportID, "commentID", comment.ID, "total", len(report.PublicComments))
	s.publish(EventPublicComment, report)

	return &CommentReceipt{
		Comment:       comment,
		TotalComments: len(report.PublicComments),
		ReportInfo:    summarize(report),
	}, nil
}

func summarize(r *models.IssueReport) ReportSummary {
	desc := r.Description
	if runes := []rune(desc); len(runes) > 100 {
		desc = string(runes[:100])
	}
	return ReportSummary{
		ID:          r.ID,
		City:        r.Location.City,
		District:    r.Location.District,
		Province:    r.Location.Province,
		Description: desc,
	}
}

// ListPublicComments returns the comments on a report in the order they were left
func (s *Service) ListPublicComments(ctx context.Context, reportID string) (*CommentList, error) {
	const op = "list public comments"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	report, err := s.findReport(ctx, op, rid)
	if err != nil {
		return nil, err
	}
	comments := report.PublicComments
	if comments == nil {
		comments = []models.PublicComment{}
	}
	return &CommentList{
		ReportID:      report.ID,
		City:          report.Location.City,
		TotalComments: len(comments),
		Comments:      comments,
	}, nil
}

// DeletePublicComment removes one comment and returns how many remain
func (s *Service) DeletePublicComment(ctx context.Context, reportID, commentID string) (int, error) {
	const op = "delete public comment"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return 0, err
	}
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return 0, validationError(op, "comment ID is required", nil)
	}

	report, err := s.reports.RemovePublicComment(ctx, rid, commentID, s.timestamp())
	if err == nil {
		zap.S().Infow("public comment deleted", "reportID", reportID, "commentID", commentID)
		return len(report.PublicComments), nil
	}
	if !databases.IsNotFound(err) {
		return 0, persistenceError(op, "failed to delete comment", err)
	}
	// nothing matched: tell a missing report from a missing comment
	if _, err := s.findReport(ctx, op, rid); err != nil {
		return 0, err
	}
	return 0, notFoundError(op, "comment not found")
}
