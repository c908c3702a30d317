package reporting

import (
	"context"
	"strings"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
)

// earthRadiusMeters is the mean earth radius used for distances
const earthRadiusMeters = 6371008.8

// DefaultNearbyRadius is used when a nearby query gives no radius
const DefaultNearbyRadius = 5000.0

// maxNearbyResults caps a nearby query
const maxNearbyResults = 200

// ReportPage is one page of a listing plus the size of the whole listing
type ReportPage struct {
	Count   int                  `json:"count"`
	Total   int64                `json:"total"`
	Reports []models.IssueReport `json:"reports"`
}

// NearbyReport is a report and how far it is from the query point
type NearbyReport struct {
	models.IssueReport
	DistanceMeters float64 `json:"distanceMeters"`
}

// GetReport loads a single report
func (s *Service) GetReport(ctx context.Context, reportID string) (*models.IssueReport, error) {
	const op = "get report"

	rid, err := ParseID(op, "report ID", reportID)
	if err != nil {
		return nil, err
	}
	return s.findReport(ctx, op, rid)
}

// ListReports pages through reports matching filter, newest first
func (s *Service) ListReports(ctx context.Context, filter databases.ReportFilter, page databases.Page) (*ReportPage, error) {
	const op = "list reports"

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError(op, "invalid status", ErrInvalidStatus)
	}
	if filter.ResolutionStatus != "" && !filter.ResolutionStatus.Valid() {
		return nil, validationError(op, "invalid resolution status", ErrInvalidStatus)
	}

	reports, err := s.reports.Find(ctx, filter, page)
	if err != nil {
		return nil, persistenceError(op, "failed to list reports", err)
	}
	total, err := s.reports.Count(ctx, filter)
	if err != nil {
		return nil, persistenceError(op, "failed to count reports", err)
	}
	return &ReportPage{Count: len(reports), Total: total, Reports: reports}, nil
}

// ReportsByUser lists every report a user submitted, newest first
func (s *Service) ReportsByUser(ctx context.Context, userID string, page databases.Page) (*ReportPage, error) {
	uid, err := ParseID("list reports by user", "user ID", userID)
	if err != nil {
		return nil, err
	}
	return s.ListReports(ctx, databases.ReportFilter{ReporterID: &uid}, page)
}

// AssignedReports lists reports assigned to an admin, optionally narrowed to
// one resolution status
func (s *Service) AssignedReports(ctx context.Context, adminID, resolutionStatus string, page databases.Page) (*ReportPage, error) {
	aid, err := ParseID("list assigned reports", "admin ID", adminID)
	if err != nil {
		return nil, err
	}
	filter := databases.ReportFilter{
		AssignedAdmin:    &aid,
		ResolutionStatus: models.ResolutionStatus(strings.TrimSpace(resolutionStatus)),
	}
	return s.ListReports(ctx, filter, page)
}

// Nearby returns reports within radius meters of the point, nearest first
func (s *Service) Nearby(ctx context.Context, latitude, longitude, radius float64) ([]NearbyReport, error) {
	const op = "list nearby reports"

	if !validCoordinate(latitude, 90) || !validCoordinate(longitude, 180) {
		return nil, validationError(op, "latitude and longitude are out of range", nil)
	}
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}

	reports, err := s.reports.FindNear(ctx, latitude, longitude, radius, maxNearbyResults)
	if err != nil {
		return nil, persistenceError(op, "failed to query nearby reports", err)
	}

	origin := s2.LatLngFromDegrees(latitude, longitude)
	out := make([]NearbyReport, 0, len(reports))
	for _, r := range reports {
		ll := s2.LatLngFromDegrees(r.Location.Latitude, r.Location.Longitude)
		out = append(out, NearbyReport{
			IssueReport:    r,
			DistanceMeters: origin.Distance(ll).Radians() * earthRadiusMeters,
		})
	}
	return out, nil
}

// GeoJSON renders matching reports as a FeatureCollection of points. Contact
// details of reporters are left out.
func (s *Service) GeoJSON(ctx context.Context, filter databases.ReportFilter, page databases.Page) (*geojson.FeatureCollection, error) {
	p, err := s.ListReports(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range p.Reports {
		f := geojson.NewPointFeature([]float64{r.Location.Longitude, r.Location.Latitude})
		f.ID = r.ID.Hex()
		f.SetProperty("description", r.Description)
		f.SetProperty("city", r.Location.City)
		f.SetProperty("district", r.Location.District)
		f.SetProperty("province", r.Location.Province)
		f.SetProperty("status", string(r.Status))
		f.SetProperty("resolutionStatus", string(r.ResolutionStatus))
		f.SetProperty("photoUrl", r.PhotoURL)
		f.SetProperty("createdAt", r.CreatedAt)
		fc.AddFeature(f)
	}
	return fc, nil
}
