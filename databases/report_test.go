package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/databases/mocks"
	"github.com/linesmerrill/city-reporter-api/models"
)

func newReportMocks() (*mocks.DatabaseHelper, *mocks.CollectionHelper) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	dbHelper.On("Collection", "issue_reports").Return(collectionHelper)
	return dbHelper, collectionHelper
}

func TestReportDatabase_InsertOneStoresEmptyLogs(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()

	var stored models.IssueReport
	collectionHelper.On("InsertOne", context.Background(), mock.AnythingOfType("models.IssueReport")).
		Return(primitive.NewObjectID(), nil).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(models.IssueReport)
		})

	id, err := databases.NewReportDatabase(dbHelper).InsertOne(context.Background(), models.IssueReport{Description: "pothole"})
	require.NoError(t, err)
	assert.False(t, id.IsZero())
	assert.Equal(t, id, stored.ID)
	assert.NotNil(t, stored.EmailsSent)
	assert.NotNil(t, stored.AdminActions)
	assert.NotNil(t, stored.EvidencePhotos)
	assert.NotNil(t, stored.PublicComments)
}

func TestReportDatabase_InsertOneError(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	collectionHelper.On("InsertOne", context.Background(), mock.Anything).Return(nil, errors.New("mocked-error"))

	id, err := databases.NewReportDatabase(dbHelper).InsertOne(context.Background(), models.IssueReport{})
	assert.EqualError(t, err, "mocked-error")
	assert.True(t, id.IsZero())
}

func TestReportDatabase_FindAppliesFilterAndPage(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	cursorHelper := &mocks.CursorHelper{}
	reporter := primitive.NewObjectID()

	expectFilter := bson.M{
		"status":          models.StatusSubmitted,
		"location.city":   primitive.Regex{Pattern: "^Colombo$", Options: "i"},
		"reporter.userId": reporter,
	}
	var gotOpts *options.FindOptions
	collectionHelper.On("Find", context.Background(), expectFilter, mock.Anything).
		Return(cursorHelper, nil).
		Run(func(args mock.Arguments) {
			gotOpts = args.Get(2).(*options.FindOptions)
		})
	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil)
	cursorHelper.On("Close", context.Background()).Return(nil)

	filter := databases.ReportFilter{Status: models.StatusSubmitted, City: "Colombo", ReporterID: &reporter}
	reports, err := databases.NewReportDatabase(dbHelper).Find(context.Background(), filter, databases.NewPage(10, 20))
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)

	require.NotNil(t, gotOpts)
	assert.Equal(t, int64(10), *gotOpts.Limit)
	assert.Equal(t, int64(20), *gotOpts.Skip)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, gotOpts.Sort)
}

func TestReportDatabase_CityFilterEscapesRegex(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	collectionHelper.On("CountDocuments", context.Background(), bson.M{
		"location.city": primitive.Regex{Pattern: `^St\. John's \(East\)$`, Options: "i"},
	}).Return(int64(3), nil)

	n, err := databases.NewReportDatabase(dbHelper).Count(context.Background(), databases.ReportFilter{City: "St. John's (East)"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestReportDatabase_FindNear(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	cursorHelper := &mocks.CursorHelper{}

	expectFilter := bson.M{
		"location.geolocation": bson.M{
			"$near": bson.M{
				"$geometry":    models.GeoPoint{Type: "Point", Coordinates: []float64{79.86, 6.93}},
				"$maxDistance": 5000.0,
			},
		},
	}
	collectionHelper.On("Find", context.Background(), expectFilter, mock.Anything).Return(cursorHelper, nil)
	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.IssueReport)
		*arg = []models.IssueReport{{Description: "near"}}
	})
	cursorHelper.On("Close", context.Background()).Return(nil)

	reports, err := databases.NewReportDatabase(dbHelper).FindNear(context.Background(), 6.93, 79.86, 5000, 50)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReportDatabase_AppendEmailDeliveries(t *testing.T) {
	id := primitive.NewObjectID()
	deliveries := []models.EmailDelivery{
		{Email: "ds@gov.lk", Status: models.DeliverySuccess, MessageID: "m1"},
		{Email: "ps@police.lk", Status: models.DeliveryFailed, Error: "boom"},
	}

	t.Run("single push of every outcome", func(t *testing.T) {
		dbHelper, collectionHelper := newReportMocks()
		var update bson.M
		collectionHelper.On("UpdateOne", context.Background(), bson.M{"_id": id}, mock.Anything).
			Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).
			Run(func(args mock.Arguments) {
				update = args.Get(2).(bson.M)
			})

		err := databases.NewReportDatabase(dbHelper).AppendEmailDeliveries(context.Background(), id, deliveries)
		require.NoError(t, err)
		assert.Equal(t, bson.M{"emailsSent": bson.M{"$each": deliveries}}, update["$push"])
		collectionHelper.AssertNumberOfCalls(t, "UpdateOne", 1)
	})

	t.Run("missing report", func(t *testing.T) {
		dbHelper, collectionHelper := newReportMocks()
		collectionHelper.On("UpdateOne", context.Background(), bson.M{"_id": id}, mock.Anything).
			Return(&mongo.UpdateResult{}, nil)

		err := databases.NewReportDatabase(dbHelper).AppendEmailDeliveries(context.Background(), id, deliveries)
		assert.True(t, databases.IsNotFound(err))
	})

	t.Run("nothing to append", func(t *testing.T) {
		dbHelper, collectionHelper := newReportMocks()
		err := databases.NewReportDatabase(dbHelper).AppendEmailDeliveries(context.Background(), id, nil)
		assert.NoError(t, err)
		collectionHelper.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReportDatabase_TransitionResolutionIsConditional(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	srHelper := &mocks.SingleResultHelper{}
	id := primitive.NewObjectID()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	action := models.AdminAction{
		ActionType:   models.ActionStatusUpdate,
		StatusChange: &models.StatusChange{From: models.ResolutionPending, To: models.ResolutionResolving},
		Timestamp:    now,
	}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.IssueReport)
		arg.ID = id
		arg.ResolutionStatus = models.ResolutionResolving
	})
	collectionHelper.On("FindOneAndUpdate", context.Background(),
		bson.M{"_id": id, "resolutionStatus": models.ResolutionPending},
		bson.M{
			"$set":  bson.M{"resolutionStatus": models.ResolutionResolving, "updatedAt": now},
			"$push": bson.M{"adminActions": action},
		},
		mock.Anything,
	).Return(srHelper)

	report, err := databases.NewReportDatabase(dbHelper).TransitionResolution(context.Background(), id, models.ResolutionPending, models.ResolutionResolving, action)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionResolving, report.ResolutionStatus)
}

func TestReportDatabase_AppendEvidenceSingleWrite(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	srHelper := &mocks.SingleResultHelper{}
	id := primitive.NewObjectID()
	now := time.Now().UTC()
	photo := models.EvidencePhoto{URL: "https://img/1", Path: "issue-reports/1", UploadedBy: "Nimal", UploadedAt: now}
	action := models.AdminAction{ActionType: models.ActionPhotoUpload, PhotoURL: photo.URL, PhotoPath: photo.Path, Timestamp: now}

	srHelper.On("Decode", mock.Anything).Return(nil)
	collectionHelper.On("FindOneAndUpdate", context.Background(), bson.M{"_id": id}, bson.M{
		"$set": bson.M{"updatedAt": now},
		"$push": bson.M{
			"evidencePhotos": photo,
			"adminActions":   action,
		},
	}, mock.Anything).Return(srHelper)

	_, err := databases.NewReportDatabase(dbHelper).AppendEvidence(context.Background(), id, photo, action)
	require.NoError(t, err)
	collectionHelper.AssertNumberOfCalls(t, "FindOneAndUpdate", 1)
}

func TestReportDatabase_RemovePublicComment(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	srHelper := &mocks.SingleResultHelper{}
	id := primitive.NewObjectID()
	now := time.Now().UTC()

	srHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOneAndUpdate", context.Background(),
		bson.M{"_id": id, "publicComments._id": "c-1"},
		bson.M{
			"$set":  bson.M{"updatedAt": now},
			"$pull": bson.M{"publicComments": bson.M{"_id": "c-1"}},
		},
		mock.Anything,
	).Return(srHelper)

	report, err := databases.NewReportDatabase(dbHelper).RemovePublicComment(context.Background(), id, "c-1", now)
	assert.Nil(t, report)
	assert.True(t, databases.IsNotFound(err))
}

func TestReportDatabase_CountByField(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	cursorHelper := &mocks.CursorHelper{}

	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$location.city", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}
	collectionHelper.On("Aggregate", context.Background(), pipeline).Return(cursorHelper, nil)
	cursorHelper.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.CountByKey)
		*arg = []models.CountByKey{{Key: "Colombo", Count: 4}, {Key: "Kandy", Count: 1}}
	})
	cursorHelper.On("Close", context.Background()).Return(nil)

	rows, err := databases.NewReportDatabase(dbHelper).CountByField(context.Background(), "location.city")
	require.NoError(t, err)
	assert.Equal(t, []models.CountByKey{{Key: "Colombo", Count: 4}, {Key: "Kandy", Count: 1}}, rows)
}

func TestReportDatabase_AdminActivityError(t *testing.T) {
	dbHelper, collectionHelper := newReportMocks()
	collectionHelper.On("Aggregate", context.Background(), mock.Anything).Return(nil, errors.New("mocked-error"))

	rows, err := databases.NewReportDatabase(dbHelper).AdminActivity(context.Background())
	assert.Nil(t, rows)
	assert.EqualError(t, err, "mocked-error")
}
