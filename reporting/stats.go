package reporting

import (
	"context"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
)

// LocationStatistics counts reports per city, district and province
type LocationStatistics struct {
	TotalReports int64               `json:"totalReports"`
	ByCity       []models.CountByKey `json:"byCity"`
	ByDistrict   []models.CountByKey `json:"byDistrict"`
	ByProvince   []models.CountByKey `json:"byProvince"`
}

// StatusStatistics counts reports per status and per resolution status
type StatusStatistics struct {
	TotalReports       int64               `json:"totalReports"`
	ByStatus           []models.CountByKey `json:"byStatus"`
	ByResolutionStatus []models.CountByKey `json:"byResolutionStatus"`
}

func (s *Service) countBy(ctx context.Context, op string, fields ...string) ([][]models.CountByKey, int64, error) {
	out := make([][]models.CountByKey, 0, len(fields))
	for _, f := range fields {
		rows, err := s.reports.CountByField(ctx, f)
		if err != nil {
			return nil, 0, persistenceError(op, "failed to aggregate reports", err)
		}
		out = append(out, rows)
	}
	total, err := s.reports.Count(ctx, databases.ReportFilter{})
	if err != nil {
		return nil, 0, persistenceError(op, "failed to count reports", err)
	}
	return out, total, nil
}

// LocationStats groups all reports by place
func (s *Service) LocationStats(ctx context.Context) (*LocationStatistics, error) {
	groups, total, err := s.countBy(ctx, "location statistics", "location.city", "location.district", "location.province")
	if err != nil {
		return nil, err
	}
	return &LocationStatistics{
		TotalReports: total,
		ByCity:       groups[0],
		ByDistrict:   groups[1],
		ByProvince:   groups[2],
	}, nil
}

// StatusStats groups all reports by status and resolution status
func (s *Service) StatusStats(ctx context.Context) (*StatusStatistics, error) {
	groups, total, err := s.countBy(ctx, "status statistics", "status", "resolutionStatus")
	if err != nil {
		return nil, err
	}
	return &StatusStatistics{
		TotalReports:       total,
		ByStatus:           groups[0],
		ByResolutionStatus: groups[1],
	}, nil
}

// AdminActivity breaks down logged actions per admin, busiest first
func (s *Service) AdminActivity(ctx context.Context) ([]models.AdminActivity, error) {
	rows, err := s.reports.AdminActivity(ctx)
	if err != nil {
		return nil, persistenceError("admin activity statistics", "failed to aggregate admin actions", err)
	}
	return rows, nil
}
