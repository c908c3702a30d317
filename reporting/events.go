package reporting

import (
	"time"

	"github.com/linesmerrill/city-reporter-api/models"
)

// EventType names a change to a report
type EventType string

// report events
const (
	EventReportSubmitted   EventType = "report.submitted"
	EventReportDeleted     EventType = "report.deleted"
	EventStatusChanged     EventType = "report.status_changed"
	EventAdminAssigned     EventType = "report.admin_assigned"
	EventResolutionChanged EventType = "report.resolution_changed"
	EventAdminComment      EventType = "report.admin_comment"
	EventEvidenceAdded     EventType = "report.evidence_added"
	EventPublicComment     EventType = "report.public_comment"
)

// Event is a small notice that a report changed. It carries no personal data.
type Event struct {
	Type             EventType               `json:"type"`
	ReportID         string                  `json:"reportId"`
	City             string                  `json:"city,omitempty"`
	Status           models.ReportStatus     `json:"status,omitempty"`
	ResolutionStatus models.ResolutionStatus `json:"resolutionStatus,omitempty"`
	At               time.Time               `json:"at"`
}

// EventPublisher receives report events. Publish must not block.
type EventPublisher interface {
	Publish(e Event)
}

type discardEvents struct{}

func (discardEvents) Publish(Event) {}

func (s *Service) publish(t EventType, report *models.IssueReport) {
	if report == nil {
		return
	}
	s.events.Publish(Event{
		Type:             t,
		ReportID:         report.ID.Hex(),
		City:             report.Location.City,
		Status:           report.Status,
		ResolutionStatus: report.ResolutionStatus,
		At:               s.timestamp(),
	})
}
