package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/models"
)

const reportName = "issue_reports"

// ReportFilter narrows a report listing. Zero fields are ignored. City,
// District and Province match case-insensitively on the whole value.
type ReportFilter struct {
	Status           models.ReportStatus
	ResolutionStatus models.ResolutionStatus
	City             string
	District         string
	Province         string
	ReporterID       *primitive.ObjectID
	AssignedAdmin    *primitive.ObjectID
}

// ReportDatabase contains the methods to use with the issue report database
type ReportDatabase interface {
	InsertOne(ctx context.Context, report models.IssueReport) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.IssueReport, error)
	Find(ctx context.Context, filter ReportFilter, page Page) ([]models.IssueReport, error)
	Count(ctx context.Context, filter ReportFilter) (int64, error)
	FindNear(ctx context.Context, latitude, longitude, maxMeters float64, limit int64) ([]models.IssueReport, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)

	AppendEmailDeliveries(ctx context.Context, id primitive.ObjectID, deliveries []models.EmailDelivery) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, now time.Time) (*models.IssueReport, error)
	Assign(ctx context.Context, id primitive.ObjectID, admin models.Admin, now time.Time) (*models.IssueReport, error)
	TransitionResolution(ctx context.Context, id primitive.ObjectID, from, to models.ResolutionStatus, action models.AdminAction) (*models.IssueReport, error)
	AppendAdminAction(ctx context.Context, id primitive.ObjectID, action models.AdminAction) (*models.IssueReport, error)
	AppendEvidence(ctx context.Context, id primitive.ObjectID, photo models.EvidencePhoto, action models.AdminAction) (*models.IssueReport, error)
	AppendPublicComment(ctx context.Context, id primitive.ObjectID, comment models.PublicComment) (*models.IssueReport, error)
	RemovePublicComment(ctx context.Context, id primitive.ObjectID, commentID string, now time.Time) (*models.IssueReport, error)

	CountByField(ctx context.Context, field string) ([]models.CountByKey, error)
	AdminActivity(ctx context.Context) ([]models.AdminActivity, error)
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

// toBSON renders the filter as a mongo query document
func (f ReportFilter) toBSON() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.ResolutionStatus != "" {
		q["resolutionStatus"] = f.ResolutionStatus
	}
	if f.City != "" {
		q["location.city"] = EqualFold(f.City)
	}
	if f.District != "" {
		q["location.district"] = EqualFold(f.District)
	}
	if f.Province != "" {
		q["location.province"] = EqualFold(f.Province)
	}
	if f.ReporterID != nil {
		q["reporter.userId"] = *f.ReporterID
	}
	if f.AssignedAdmin != nil {
		q["assignedAdmin"] = *f.AssignedAdmin
	}
	return q
}

// EqualFold matches the whole value ignoring case
func EqualFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func (r *reportDatabase) InsertOne(ctx context.Context, report models.IssueReport) (primitive.ObjectID, error) {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	// $push fails on a null field, so every log array is stored empty
	if report.EmailsSent == nil {
		report.EmailsSent = []models.EmailDelivery{}
	}
	if report.AdminActions == nil {
		report.AdminActions = []models.AdminAction{}
	}
	if report.EvidencePhotos == nil {
		report.EvidencePhotos = []models.EvidencePhoto{}
	}
	if report.PublicComments == nil {
		report.PublicComments = []models.PublicComment{}
	}
	if _, err := r.db.Collection(reportName).InsertOne(ctx, report); err != nil {
		return primitive.NilObjectID, err
	}
	return report.ID, nil
}

func (r *reportDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.IssueReport, error) {
	report := &models.IssueReport{}
	err := r.db.Collection(reportName).FindOne(ctx, bson.M{"_id": id}).Decode(report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportDatabase) Find(ctx context.Context, filter ReportFilter, page Page) ([]models.IssueReport, error) {
	return r.find(ctx, filter.toBSON(), page.newestFirst())
}

func (r *reportDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.IssueReport, error) {
	var reports []models.IssueReport
	cur, err := r.db.Collection(reportName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.IssueReport{}
	}
	return reports, nil
}

func (r *reportDatabase) Count(ctx context.Context, filter ReportFilter) (int64, error) {
	return r.db.Collection(reportName).CountDocuments(ctx, filter.toBSON())
}

// FindNear returns reports within maxMeters of the point, nearest first
func (r *reportDatabase) FindNear(ctx context.Context, latitude, longitude, maxMeters float64, limit int64) ([]models.IssueReport, error) {
	filter := bson.M{
		"location.geolocation": bson.M{
			"$near": bson.M{
				"$geometry":    models.NewGeoPoint(latitude, longitude),
				"$maxDistance": maxMeters,
			},
		},
	}
	return r.find(ctx, filter, options.Find().SetLimit(limit))
}

func (r *reportDatabase) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return r.db.Collection(reportName).DeleteOne(ctx, bson.M{"_id": id})
}

func (r *reportDatabase) AppendEmailDeliveries(ctx context.Context, id primitive.ObjectID, deliveries []models.EmailDelivery) error {
	if len(deliveries) == 0 {
		return nil
	}
	update := bson.M{
		"$push": bson.M{"emailsSent": bson.M{"$each": deliveries}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.db.Collection(reportName).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *reportDatabase) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, now time.Time) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": now},
	})
}

// Assign overwrites any previous assignment
func (r *reportDatabase) Assign(ctx context.Context, id primitive.ObjectID, admin models.Admin, now time.Time) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"assignedAdmin":         admin.ID,
			"assignedAdminName":     admin.Name,
			"assignedAdminPosition": admin.Position,
			"assignedAt":            now,
			"updatedAt":             now,
		},
	})
}

// TransitionResolution replaces the resolution status only while it still
// equals from. A concurrent change makes it return a not-found error.
func (r *reportDatabase) TransitionResolution(ctx context.Context, id primitive.ObjectID, from, to models.ResolutionStatus, action models.AdminAction) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id, "resolutionStatus": from}, bson.M{
		"$set":  bson.M{"resolutionStatus": to, "updatedAt": action.Timestamp},
		"$push": bson.M{"adminActions": action},
	})
}

func (r *reportDatabase) AppendAdminAction(ctx context.Context, id primitive.ObjectID, action models.AdminAction) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"updatedAt": action.Timestamp},
		"$push": bson.M{"adminActions": action},
	})
}

// AppendEvidence stores the photo and its photo_upload action in one write
func (r *reportDatabase) AppendEvidence(ctx context.Context, id primitive.ObjectID, photo models.EvidencePhoto, action models.AdminAction) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"updatedAt": action.Timestamp},
		"$push": bson.M{
			"evidencePhotos": photo,
			"adminActions":   action,
		},
	})
}

func (r *reportDatabase) AppendPublicComment(ctx context.Context, id primitive.ObjectID, comment models.PublicComment) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"updatedAt": comment.Timestamp},
		"$push": bson.M{"publicComments": comment},
	})
}

// RemovePublicComment only matches when the report holds the comment
func (r *reportDatabase) RemovePublicComment(ctx context.Context, id primitive.ObjectID, commentID string, now time.Time) (*models.IssueReport, error) {
	return r.updateOne(ctx, bson.M{"_id": id, "publicComments._id": commentID}, bson.M{
		"$set":  bson.M{"updatedAt": now},
		"$pull": bson.M{"publicComments": bson.M{"_id": commentID}},
	})
}

func (r *reportDatabase) updateOne(ctx context.Context, filter, update interface{}) (*models.IssueReport, error) {
	report := &models.IssueReport{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.db.Collection(reportName).FindOneAndUpdate(ctx, filter, update, opts).Decode(report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CountByField groups all reports by the value at field, most frequent first
func (r *reportDatabase) CountByField(ctx context.Context, field string) ([]models.CountByKey, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}
	var rows []models.CountByKey
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.CountByKey{}
	}
	return rows, nil
}

// AdminActivity breaks down logged actions per admin name
func (r *reportDatabase) AdminActivity(ctx context.Context) ([]models.AdminActivity, error) {
	countType := func(t models.ActionType) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$adminActions.actionType", t}}, 1, 0}}}
	}
	pipeline := []bson.M{
		{"$unwind": "$adminActions"},
		{"$group": bson.M{
			"_id":           "$adminActions.adminName",
			"totalActions":  bson.M{"$sum": 1},
			"comments":      countType(models.ActionComment),
			"statusUpdates": countType(models.ActionStatusUpdate),
			"photoUploads":  countType(models.ActionPhotoUpload),
		}},
		{"$sort": bson.M{"totalActions": -1}},
	}
	var rows []models.AdminActivity
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.AdminActivity{}
	}
	return rows, nil
}

func (r *reportDatabase) aggregate(ctx context.Context, pipeline interface{}, out interface{}) error {
	cur, err := r.db.Collection(reportName).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}
