package databases

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/models"
)

const adminCollectionName = "admins"

// AdminDatabase defines the interface for admin operations
type AdminDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Admin, error)
	UpsertByEmail(ctx context.Context, admin models.Admin, now time.Time) (*models.Admin, error)
	InsertMany(ctx context.Context, admins []models.Admin) ([]interface{}, error)
}

type adminDatabase struct {
	db DatabaseHelper
}

// NewAdminDatabase creates a new admin database wrapper
func NewAdminDatabase(db DatabaseHelper) AdminDatabase {
	return &adminDatabase{db: db}
}

func (a *adminDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	admin := &models.Admin{}
	err := a.db.Collection(adminCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (a *adminDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Admin, error) {
	var admins []models.Admin
	cur, err := a.db.Collection(adminCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// UpsertByEmail registers the admin, or overwrites the profile of the admin
// that already owns admin.Email. Phone is only overwritten when non-empty.
func (a *adminDatabase) UpsertByEmail(ctx context.Context, admin models.Admin, now time.Time) (*models.Admin, error) {
	set := bson.M{
		"name":      admin.Name,
		"position":  admin.Position,
		"city":      admin.City,
		"district":  admin.District,
		"province":  admin.Province,
		"updatedAt": now,
	}
	if admin.Phone != "" {
		set["phone"] = admin.Phone
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"email": admin.Email, "createdAt": now},
	}
	return upsertOne[models.Admin](ctx, a.db.Collection(adminCollectionName), bson.M{"email": admin.Email}, update)
}

func (a *adminDatabase) InsertMany(ctx context.Context, admins []models.Admin) ([]interface{}, error) {
	docs := make([]interface{}, 0, len(admins))
	for _, ad := range admins {
		docs = append(docs, ad)
	}
	return a.db.Collection(adminCollectionName).InsertMany(ctx, docs)
}
