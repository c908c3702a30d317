package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolutionStatus is the administrative workflow state of a report. Any value
// may follow any other value.
type ResolutionStatus string

// resolution statuses
const (
	ResolutionPending    ResolutionStatus = "pending"
	ResolutionResolving  ResolutionStatus = "resolving"
	ResolutionProcessing ResolutionStatus = "processing"
	ResolutionArranging  ResolutionStatus = "arranging"
	ResolutionResolved   ResolutionStatus = "resolved"
)

// ResolutionStatuses lists every valid resolution status in workflow order
var ResolutionStatuses = []ResolutionStatus{
	ResolutionPending,
	ResolutionResolving,
	ResolutionProcessing,
	ResolutionArranging,
	ResolutionResolved,
}

// Valid reports whether s is one of the enumerated resolution statuses
func (s ResolutionStatus) Valid() bool {
	for _, v := range ResolutionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ReportStatus is the coarse lifecycle of a report. It is set independently of
// ResolutionStatus.
type ReportStatus string

// report statuses
const (
	StatusSubmitted  ReportStatus = "submitted"
	StatusInProgress ReportStatus = "in-progress"
	StatusResolved   ReportStatus = "resolved"
	StatusRejected   ReportStatus = "rejected"
)

// Valid reports whether s is one of the enumerated report statuses
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// ActionType classifies an entry in a report's admin action log
type ActionType string

// admin action types
const (
	ActionComment      ActionType = "comment"
	ActionStatusUpdate ActionType = "status_update"
	ActionPhotoUpload  ActionType = "photo_upload"
	ActionResolution   ActionType = "resolution"
)

// DeliveryStatus is the outcome of one notification attempt
type DeliveryStatus string

// delivery statuses
const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// ReporterSnapshot is a copy of the reporter's identity taken at submission time
type ReporterSnapshot struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Name   string             `bson:"name" json:"name"`
	Email  string             `bson:"email" json:"email"`
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a point from latitude and longitude
func NewGeoPoint(latitude, longitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// Location is where a reported issue is
type Location struct {
	Latitude    float64  `bson:"latitude" json:"latitude"`
	Longitude   float64  `bson:"longitude" json:"longitude"`
	Address     string   `bson:"address" json:"address"`
	City        string   `bson:"city" json:"city"`
	District    string   `bson:"district" json:"district"`
	Province    string   `bson:"province" json:"province"`
	FullAddress string   `bson:"fullAddress,omitempty" json:"fullAddress,omitempty"`
	Geolocation GeoPoint `bson:"geolocation" json:"geolocation"`
}

// OfficeSnapshot is a copy of a targeted office taken at submission time
type OfficeSnapshot struct {
	Type  OfficeType `bson:"type" json:"type"`
	Name  string     `bson:"name" json:"name"`
	Email string     `bson:"email" json:"email"`
}

// EmailDelivery records one notification attempt to an office
type EmailDelivery struct {
	Email     string         `bson:"email" json:"email"`
	SentAt    time.Time      `bson:"sentAt" json:"sentAt"`
	Status    DeliveryStatus `bson:"status" json:"status"`
	MessageID string         `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Error     string         `bson:"error,omitempty" json:"error,omitempty"`
}

// StatusChange is the from/to pair of a resolution status update
type StatusChange struct {
	From ResolutionStatus `bson:"from" json:"from"`
	To   ResolutionStatus `bson:"to" json:"to"`
}

// AdminAction is one entry of a report's append-only action log
type AdminAction struct {
	AdminID       primitive.ObjectID `bson:"adminId" json:"adminId"`
	AdminName     string             `bson:"adminName" json:"adminName"`
	AdminPosition string             `bson:"adminPosition,omitempty" json:"adminPosition,omitempty"`
	ActionType    ActionType         `bson:"actionType" json:"actionType"`
	Comment       string             `bson:"comment,omitempty" json:"comment,omitempty"`
	StatusChange  *StatusChange      `bson:"statusChange,omitempty" json:"statusChange,omitempty"`
	PhotoURL      string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	PhotoPath     string             `bson:"photoPath,omitempty" json:"photoPath,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}

// EvidencePhoto is a photo uploaded by an admin while working a report
type EvidencePhoto struct {
	URL        string    `bson:"url" json:"url"`
	Path       string    `bson:"path" json:"path"`
	UploadedBy string    `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// PublicComment is an unauthenticated comment left on a report
type PublicComment struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// IssueReport is a citizen-submitted civic issue with its full lifecycle state
type IssueReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reporter    ReporterSnapshot   `bson:"reporter" json:"reporter"`
	Description string             `bson:"description" json:"description"`
	Location    Location           `bson:"location" json:"location"`
	PhotoURL    string             `bson:"photoUrl" json:"photoUrl"`
	PhotoPath   string             `bson:"photoPath,omitempty" json:"photoPath,omitempty"`
	Offices     []OfficeSnapshot   `bson:"offices" json:"offices"`
	EmailsSent  []EmailDelivery    `bson:"emailsSent" json:"emailsSent"`

	ResolutionStatus      ResolutionStatus    `bson:"resolutionStatus" json:"resolutionStatus"`
	AssignedAdmin         *primitive.ObjectID `bson:"assignedAdmin,omitempty" json:"assignedAdmin,omitempty"`
	AssignedAdminName     string              `bson:"assignedAdminName,omitempty" json:"assignedAdminName,omitempty"`
	AssignedAdminPosition string              `bson:"assignedAdminPosition,omitempty" json:"assignedAdminPosition,omitempty"`
	AssignedAt            *time.Time          `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	AdminActions   []AdminAction   `bson:"adminActions" json:"adminActions"`
	EvidencePhotos []EvidencePhoto `bson:"evidencePhotos" json:"evidencePhotos"`
	PublicComments []PublicComment `bson:"publicComments" json:"publicComments"`

	Status    ReportStatus `bson:"status" json:"status"`
	CreatedAt time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// CountByKey is one row of a group-by-count aggregation
type CountByKey struct {
	Key   string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

// AdminActivity is the per-admin action breakdown across all reports
type AdminActivity struct {
	AdminName     string `bson:"_id" json:"_id"`
	TotalActions  int64  `bson:"totalActions" json:"totalActions"`
	Comments      int64  `bson:"comments" json:"comments"`
	StatusUpdates int64  `bson:"statusUpdates" json:"statusUpdates"`
	PhotoUploads  int64  `bson:"photoUploads" json:"photoUploads"`
}
