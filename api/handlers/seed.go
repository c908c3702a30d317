package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/api"
	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
)

// Seed loads sample offices and admins into an empty deployment
type Seed struct {
	ODB databases.OfficeDatabase
	ADB databases.AdminDatabase
}

func sampleOffices(now time.Time) []models.RegionalOffice {
	office := func(t models.OfficeType, name, email, district, province string) models.RegionalOffice {
		return models.RegionalOffice{
			ID: primitive.NewObjectID(), Type: t, Name: name, Email: email,
			District: district, Province: province, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	return []models.RegionalOffice{
		office(models.OfficeTypeDS, "Divisional Secretariat Colombo", "ds.colombo@gov.lk", "Colombo", "Western"),
		office(models.OfficeTypePS, "Colombo Central Police Station", "ps.colombo@police.lk", "Colombo", "Western"),
		office(models.OfficeTypeDS, "Divisional Secretariat Gampaha", "ds.gampaha@gov.lk", "Gampaha", "Western"),
		office(models.OfficeTypePS, "Gampaha Police Station", "ps.gampaha@police.lk", "Gampaha", "Western"),
		office(models.OfficeTypeDS, "Divisional Secretariat Kandy", "ds.kandy@gov.lk", "Kandy", "Central"),
		office(models.OfficeTypePS, "Kandy Police Station", "ps.kandy@police.lk", "Kandy", "Central"),
		office(models.OfficeTypeDS, "Divisional Secretariat Galle", "ds.galle@gov.lk", "Galle", "Southern"),
		office(models.OfficeTypePS, "Galle Police Station", "ps.galle@police.lk", "Galle", "Southern"),
	}
}

func sampleAdmins(now time.Time) []models.Admin {
	admin := func(name, email, position, city, province, phone string) models.Admin {
		return models.Admin{
			ID: primitive.NewObjectID(), Name: name, Email: email, Position: position,
			City: city, District: city, Province: province, Phone: phone,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	return []models.Admin{
		admin("John Silva", "john.silva@colombo.gov.lk", "Senior Administrator", "Colombo", "Western", "+94112223344"),
		admin("Maria Fernando", "maria.fernando@colombo.gov.lk", "Issue Manager", "Colombo", "Western", "+94112225566"),
		admin("Ravi Perera", "ravi.perera@gampaha.gov.lk", "Administrative Officer", "Gampaha", "Western", "+94332234455"),
		admin("Nisha Jayasuriya", "nisha.jayasuriya@kandy.gov.lk", "Resolution Coordinator", "Kandy", "Central", "+94812334566"),
	}
}

func seedFailed(w http.ResponseWriter, what string, err error) {
	if databases.IsDuplicateKey(err) {
		config.ErrorKindStatus(what+" have already been seeded", "conflict", http.StatusConflict, w, err)
		return
	}
	config.ErrorStatus("failed to seed "+what, http.StatusInternalServerError, w, err)
}

// SeedOfficesHandler inserts the sample regional offices
func (s Seed) SeedOfficesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	offices := sampleOffices(time.Now().UTC())
	if _, err := s.ODB.InsertMany(ctx, offices); err != nil {
		seedFailed(w, "offices", err)
		return
	}
	zap.S().Infow("seeded offices", "count", len(offices))
	writeJSON(w, http.StatusCreated, envelope{
		"message": fmt.Sprintf("%d offices created successfully", len(offices)),
		"offices": offices,
	})
}

// SeedAdminsHandler inserts the sample admins
func (s Seed) SeedAdminsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admins := sampleAdmins(time.Now().UTC())
	if _, err := s.ADB.InsertMany(ctx, admins); err != nil {
		seedFailed(w, "admins", err)
		return
	}
	zap.S().Infow("seeded admins", "count", len(admins))
	writeJSON(w, http.StatusCreated, envelope{
		"message": fmt.Sprintf("%d admins created successfully", len(admins)),
		"admins":  admins,
	})
}
