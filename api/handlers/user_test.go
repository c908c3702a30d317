package handlers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/city-reporter-api/api/handlers"
	"github.com/linesmerrill/city-reporter-api/api/testhelpers"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/databases/mocks"
	"github.com/linesmerrill/city-reporter-api/models"
)

func userHandlers(users *mocks.CollectionHelper) handlers.User {
	db := testhelpers.MockDB(map[string]*mocks.CollectionHelper{"users": users})
	return handlers.User{Svc: newService(db, nil, nil), DB: databases.NewUserDatabase(db)}
}

func TestUser_UserHandlerInvalidID(t *testing.T) {
	req, _ := http.NewRequest("GET", "/users/asdf", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "asdf"})

	rr := serve(userHandlers(&mocks.CollectionHelper{}).UserHandler, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	msg, kind := errorOf(t, rr)
	assert.Equal(t, "invalid user ID", msg)
	assert.Equal(t, "validation", kind)
}

func TestUser_UserHandlerNotFound(t *testing.T) {
	id := primitive.NewObjectID()
	users := &mocks.CollectionHelper{}
	users.On("FindOne", mock.Anything, mock.Anything).Return(testhelpers.Fails(mongo.ErrNoDocuments))

	req, _ := http.NewRequest("GET", "/users/"+id.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": id.Hex()})

	rr := serve(userHandlers(users).UserHandler, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	msg, kind := errorOf(t, rr)
	assert.Equal(t, "user not found", msg)
	assert.Equal(t, "not_found", kind)
}

func TestUser_UserHandlerFailedToFind(t *testing.T) {
	id := primitive.NewObjectID()
	users := &mocks.CollectionHelper{}
	users.On("FindOne", mock.Anything, mock.Anything).Return(testhelpers.Fails(errors.New("mocked-error")))

	req, _ := http.NewRequest("GET", "/users/"+id.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": id.Hex()})

	rr := serve(userHandlers(users).UserHandler, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "mocked-error")
}

func TestUser_UserHandlerSuccess(t *testing.T) {
	id := primitive.NewObjectID()
	users := &mocks.CollectionHelper{}
	users.On("FindOne", mock.Anything, mock.Anything).
		Return(testhelpers.Decodes(models.User{ID: id, Name: "Kamal Perera", Email: "kamal@example.lk"}))

	req, _ := http.NewRequest("GET", "/users/"+id.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": id.Hex()})

	rr := serve(userHandlers(users).UserHandler, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "kamal@example.lk", user["email"])
}

func TestUser_UsersHandler(t *testing.T) {
	users := &mocks.CollectionHelper{}
	users.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(testhelpers.Cursor([]models.User{
		{ID: primitive.NewObjectID(), Name: "A", Email: "a@example.lk"},
		{ID: primitive.NewObjectID(), Name: "B", Email: "b@example.lk"},
	}), nil)

	req, _ := http.NewRequest("GET", "/users", nil)
	rr := serve(userHandlers(users).UsersHandler, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), decodeBody(t, rr)["count"])
}

func TestUser_UsersHandlerEmpty(t *testing.T) {
	users := &mocks.CollectionHelper{}
	users.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(testhelpers.Cursor([]models.User{}), nil)

	req, _ := http.NewRequest("GET", "/users", nil)
	rr := serve(userHandlers(users).UsersHandler, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{}, decodeBody(t, rr)["users"])
}

func TestUser_UsersHandlerFailedToFind(t *testing.T) {
	users := &mocks.CollectionHelper{}
	users.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	req, _ := http.NewRequest("GET", "/users", nil)
	rr := serve(userHandlers(users).UsersHandler, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestUser_RegisterUserHandlerMissingFields(t *testing.T) {
	users := &mocks.CollectionHelper{}
	req := jsonRequest(t, "POST", "/users/register", map[string]string{"name": "  ", "email": "a@example.lk"})

	rr := serve(userHandlers(users).RegisterUserHandler, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	msg, _ := errorOf(t, rr)
	assert.Equal(t, "name and email are required", msg)
	users.AssertNotCalled(t, "FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUser_RegisterUserHandlerBadJSON(t *testing.T) {
	req, _ := http.NewRequest("POST", "/users/register", strings.NewReader("{not json"))
	rr := serve(userHandlers(&mocks.CollectionHelper{}).RegisterUserHandler, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_RegisterUserHandlerExistingUser(t *testing.T) {
	id := primitive.NewObjectID()
	users := &mocks.CollectionHelper{}
	users.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(testhelpers.Decodes(models.User{
			ID:        id,
			Name:      "Kamal Perera",
			Email:     "kamal@example.lk",
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}))

	req := jsonRequest(t, "POST", "/users/register", map[string]string{"name": "Kamal Perera", "email": " Kamal@Example.lk "})
	rr := serve(userHandlers(users).RegisterUserHandler, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "User information updated", decodeBody(t, rr)["message"])
}

func TestUser_RegisterUserHandlerStoreFailure(t *testing.T) {
	users := &mocks.CollectionHelper{}
	users.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(testhelpers.Fails(errors.New("mocked-error")))

	req := jsonRequest(t, "POST", "/users/register", map[string]string{"name": "Kamal", "email": "kamal@example.lk"})
	rr := serve(userHandlers(users).RegisterUserHandler, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	_, kind := errorOf(t, rr)
	assert.Equal(t, "persistence", kind)
}
