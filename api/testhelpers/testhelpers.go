package testhelpers

import (
	"github.com/stretchr/testify/mock"

	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/databases/mocks"
)

// MockDB returns a DatabaseHelper mock that hands out the given collection
// mocks by name
func MockDB(collections map[string]*mocks.CollectionHelper) *mocks.DatabaseHelper {
	db := &mocks.DatabaseHelper{}
	for name, coll := range collections {
		db.On("Collection", name).Return(coll)
	}
	return db
}

// Cursor returns a cursor mock that drains into a *[]T
func Cursor[T any](items []T) *mocks.CursorHelper {
	cur := &mocks.CursorHelper{}
	cur.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		out := args.Get(1).(*[]T)
		*out = append((*out)[:0], items...)
	})
	cur.On("Close", mock.Anything).Return(nil)
	return cur
}

// Decodes returns a single result mock that copies v into the decode target.
// The target may be a *T or a **T, matching how the databases package decodes.
func Decodes[T any](v T) *mocks.SingleResultHelper {
	sr := &mocks.SingleResultHelper{}
	sr.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		switch out := args.Get(0).(type) {
		case *T:
			*out = v
		case **T:
			c := v
			*out = &c
		}
	})
	return sr
}

// Fails returns a single result mock whose Decode returns err
func Fails(err error) *mocks.SingleResultHelper {
	sr := &mocks.SingleResultHelper{}
	sr.On("Decode", mock.Anything).Return(err)
	return sr
}

var _ databases.DatabaseHelper = (*mocks.DatabaseHelper)(nil)
