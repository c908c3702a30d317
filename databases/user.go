package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error)
	UpsertByEmail(ctx context.Context, name, email, phone string, now time.Time) (*models.User, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	var users []models.User
	cur, err := u.db.Collection(userName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertByEmail creates the user for email, or overwrites the name (and phone,
// when given) of the existing one. The email must already be normalized.
func (u *userDatabase) UpsertByEmail(ctx context.Context, name, email, phone string, now time.Time) (*models.User, error) {
	set := bson.M{"name": name, "updatedAt": now}
	if phone != "" {
		set["phone"] = phone
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"email": email, "createdAt": now},
	}
	return upsertOne[models.User](ctx, u.db.Collection(userName), bson.M{"email": email}, update)
}

// upsertOne runs an upsert returning the stored document. Two concurrent
// upserts on the same unique key can race to insert; the loser retries once
// and then matches the winner's document.
func upsertOne[T any](ctx context.Context, coll CollectionHelper, filter, update interface{}) (*T, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		out := new(T)
		err = coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
		if err == nil {
			return out, nil
		}
		if !IsDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, err
}
