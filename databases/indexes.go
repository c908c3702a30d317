package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// indexes lists the indexes each collection needs, keyed by collection name
func indexes() map[string][]mongo.IndexModel {
	desc := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}, {Key: "createdAt", Value: -1}}}
	}
	single := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	}
	uniqueEmail := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	return map[string][]mongo.IndexModel{
		userName: {uniqueEmail},
		adminCollectionName: {
			uniqueEmail,
			single("city"),
		},
		officeName: {
			single("district"),
			single("province"),
			single("isActive"),
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "district", Value: 1}}},
		},
		reportName: {
			desc("location.city"),
			desc("location.district"),
			desc("location.province"),
			single("reporter.userId"),
			single("resolutionStatus"),
			single("assignedAdmin"),
			single("status"),
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "location.geolocation", Value: "2dsphere"}}},
		},
	}
}

// EnsureIndexes creates every index the collections rely on. Creating an
// index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for name, idx := range indexes() {
		if err := db.Collection(name).CreateIndexes(ctx, idx); err != nil {
			zap.S().Errorw("failed to create indexes", "collection", name, "error", err)
			return err
		}
	}
	return nil
}
