package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/api"
	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// Admin exported for testing purposes
type Admin struct {
	Svc *reporting.Service
	DB  databases.AdminDatabase
}

// RegisterAdminHandler creates an admin or overwrites the profile of the one
// owning the email
func (a Admin) RegisterAdminHandler(w http.ResponseWriter, r *http.Request) {
	var in reporting.AdminInput
	if !decodeJSON(w, r, &in) {
		return
	}

	admin, created, err := a.Svc.RegisterAdmin(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, envelope{"message": "Admin registered successfully", "admin": admin})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Admin updated", "admin": admin})
}

// AdminHandler returns an admin by ID
func (a Admin) AdminHandler(w http.ResponseWriter, r *http.Request) {
	admin, err := a.Svc.ResolveAdmin(r.Context(), mux.Vars(r)["admin_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"admin": admin})
}

// AdminsByCityHandler returns the admins of a city, matched case-insensitively
func (a Admin) AdminsByCityHandler(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(mux.Vars(r)["city"])

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	admins, err := a.DB.Find(ctx, bson.M{"city": databases.EqualFold(city)}, opts)
	if err != nil {
		config.ErrorStatus("failed to get admins", http.StatusInternalServerError, w, err)
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(admins), "admins": admins})
}

// AssignedIssuesHandler lists the reports assigned to an admin
func (a Admin) AssignedIssuesHandler(w http.ResponseWriter, r *http.Request) {
	adminID := mux.Vars(r)["admin_id"]
	page, err := a.Svc.AssignedReports(r.Context(), adminID, r.URL.Query().Get("status"), pageFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": page.Count, "total": page.Total, "reports": page.Reports})
}
