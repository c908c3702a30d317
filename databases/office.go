package databases

// go generate: mockery --name OfficeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/models"
)

const officeName = "regional_offices"

// OfficeDatabase contains the methods to use with the regional office database
type OfficeDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RegionalOffice, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RegionalOffice, error)
	InsertOne(ctx context.Context, office models.RegionalOffice) (primitive.ObjectID, error)
	InsertMany(ctx context.Context, offices []models.RegionalOffice) ([]interface{}, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.RegionalOffice, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type officeDatabase struct {
	db DatabaseHelper
}

// NewOfficeDatabase initializes a new instance of office database with the provided db connection
func NewOfficeDatabase(db DatabaseHelper) OfficeDatabase {
	return &officeDatabase{
		db: db,
	}
}

func (o *officeDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RegionalOffice, error) {
	office := &models.RegionalOffice{}
	err := o.db.Collection(officeName).FindOne(ctx, bson.M{"_id": id}).Decode(&office)
	if err != nil {
		return nil, err
	}
	return office, nil
}

func (o *officeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.RegionalOffice, error) {
	var offices []models.RegionalOffice
	cur, err := o.db.Collection(officeName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &offices); err != nil {
		return nil, err
	}
	return offices, nil
}

func (o *officeDatabase) InsertOne(ctx context.Context, office models.RegionalOffice) (primitive.ObjectID, error) {
	if office.ID.IsZero() {
		office.ID = primitive.NewObjectID()
	}
	if _, err := o.db.Collection(officeName).InsertOne(ctx, office); err != nil {
		return primitive.NilObjectID, err
	}
	return office.ID, nil
}

func (o *officeDatabase) InsertMany(ctx context.Context, offices []models.RegionalOffice) ([]interface{}, error) {
	docs := make([]interface{}, 0, len(offices))
	for _, of := range offices {
		docs = append(docs, of)
	}
	return o.db.Collection(officeName).InsertMany(ctx, docs)
}

func (o *officeDatabase) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.RegionalOffice, error) {
	office := &models.RegionalOffice{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := o.db.Collection(officeName).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(office)
	if err != nil {
		return nil, err
	}
	return office, nil
}

func (o *officeDatabase) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return o.db.Collection(officeName).DeleteOne(ctx, bson.M{"_id": id})
}
