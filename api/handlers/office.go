package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/api"
	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// Office exported for testing purposes
type Office struct {
	DB databases.OfficeDatabase
}

// officeRequest is the body of office create and update. Pointers tell an
// omitted field from an empty one on update.
type officeRequest struct {
	Type     *string `json:"type"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	District *string `json:"district"`
	Province *string `json:"province"`
	IsActive *bool   `json:"isActive"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func badRequest(w http.ResponseWriter, msg string, err error) {
	config.ErrorKindStatus(msg, string(reporting.KindValidation), http.StatusBadRequest, w, err)
}

func officeID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["office_id"])
	if err != nil {
		badRequest(w, "invalid office ID", err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func officeStoreError(w http.ResponseWriter, msg string, err error) {
	if databases.IsNotFound(err) {
		config.ErrorKindStatus("office not found", string(reporting.KindNotFound), http.StatusNotFound, w, err)
		return
	}
	config.ErrorStatus(msg, http.StatusInternalServerError, w, err)
}

// CreateOfficeHandler adds a regional office
func (o Office) CreateOfficeHandler(w http.ResponseWriter, r *http.Request) {
	var req officeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if str(req.Type) == "" || str(req.Name) == "" || str(req.Email) == "" {
		badRequest(w, "type, name, and email are required", nil)
		return
	}
	t, ok := models.ParseOfficeType(str(req.Type))
	if !ok {
		badRequest(w, "type must be DS or PS", nil)
		return
	}

	now := time.Now().UTC()
	office := models.RegionalOffice{
		ID:        primitive.NewObjectID(),
		Type:      t,
		Name:      str(req.Name),
		Email:     reporting.NormalizeEmail(str(req.Email)),
		Phone:     str(req.Phone),
		Address:   str(req.Address),
		District:  str(req.District),
		Province:  str(req.Province),
		IsActive:  req.IsActive == nil || *req.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := o.DB.InsertOne(ctx, office); err != nil {
		config.ErrorStatus("failed to create office", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("office created", "officeID", office.ID.Hex(), "type", office.Type)
	writeJSON(w, http.StatusCreated, envelope{"message": "Office created successfully", "office": office})
}

// OfficesHandler lists offices by name, optionally filtered by type, district
// and isActive
func (o Office) OfficesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bson.M{}
	if v := q.Get("type"); v != "" {
		filter["type"] = strings.ToUpper(strings.TrimSpace(v))
	}
	if v := q.Get("district"); v != "" {
		filter["district"] = v
	}
	if v := q.Get("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "isActive must be true or false", err)
			return
		}
		filter["isActive"] = active
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	offices, err := o.DB.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		config.ErrorStatus("failed to get offices", http.StatusInternalServerError, w, err)
		return
	}
	if offices == nil {
		offices = []models.RegionalOffice{}
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(offices), "offices": offices})
}

// OfficeHandler returns an office by ID
func (o Office) OfficeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := officeID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	office, err := o.DB.FindByID(ctx, id)
	if err != nil {
		officeStoreError(w, "failed to get office", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"office": office})
}

// UpdateOfficeHandler overwrites the fields present in the body
func (o Office) UpdateOfficeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := officeID(w, r)
	if !ok {
		return
	}
	var req officeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Type != nil {
		t, ok := models.ParseOfficeType(*req.Type)
		if !ok {
			badRequest(w, "type must be DS or PS", nil)
			return
		}
		set["type"] = t
	}
	if req.Email != nil {
		email := reporting.NormalizeEmail(*req.Email)
		if !reporting.ValidEmail(email) {
			badRequest(w, "invalid email format", nil)
			return
		}
		set["email"] = email
	}
	for field, v := range map[string]*string{
		"name":     req.Name,
		"phone":    req.Phone,
		"address":  req.Address,
		"district": req.District,
		"province": req.Province,
	} {
		if v != nil {
			set[field] = strings.TrimSpace(*v)
		}
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	office, err := o.DB.UpdateByID(ctx, id, set)
	if err != nil {
		officeStoreError(w, "failed to update office", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Office updated successfully", "office": office})
}

// DeleteOfficeHandler removes an office
func (o Office) DeleteOfficeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := officeID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	n, err := o.DB.DeleteByID(ctx, id)
	if err != nil {
		config.ErrorStatus("failed to delete office", http.StatusInternalServerError, w, err)
		return
	}
	if n == 0 {
		config.ErrorKindStatus("office not found", string(reporting.KindNotFound), http.StatusNotFound, w, nil)
		return
	}
	zap.S().Infow("office deleted", "officeID", id.Hex())
	writeJSON(w, http.StatusOK, envelope{"message": "Office deleted successfully"})
}
