package handlers

import (
	"net/http"

	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// Statistics exported for testing purposes
type Statistics struct {
	Svc *reporting.Service
}

// LocationStatisticsHandler counts reports per city, district and province
func (s Statistics) LocationStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.Svc.LocationStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"statistics": st})
}

// StatusStatisticsHandler counts reports per status and resolution status
func (s Statistics) StatusStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.Svc.StatusStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"statistics": st})
}

// AdminActivityHandler breaks down logged actions per admin
func (s Statistics) AdminActivityHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Svc.AdminActivity(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []models.AdminActivity{}
	}
	writeJSON(w, http.StatusOK, envelope{"adminActivity": rows})
}
