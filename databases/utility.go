package databases

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageLimit is used when a caller asks for a non-positive limit
const DefaultPageLimit = 50

// MaxPageLimit caps a single page
const MaxPageLimit = 500

// Page describes one window of a sorted listing
type Page struct {
	Limit int64
	Skip  int64
}

// NewPage clamps limit and skip to sane values
func NewPage(limit, skip int) Page {
	l := int64(limit)
	if l <= 0 {
		l = DefaultPageLimit
	}
	if l > MaxPageLimit {
		l = MaxPageLimit
	}
	s := int64(skip)
	if s < 0 {
		s = 0
	}
	return Page{Limit: l, Skip: s}
}

// newestFirst returns find options for the page sorted by createdAt descending
func (p Page) newestFirst() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(p.Limit).
		SetSkip(p.Skip)
}

// IsNotFound reports whether err means the document does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
