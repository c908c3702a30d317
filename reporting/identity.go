package reporting

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like local@domain.tld
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseID parses a hex object id; a malformed id is a validation failure
func ParseID(op, field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, validationError(op, "invalid "+field, err)
	}
	return oid, nil
}

// RegisterUser creates the user owning email or updates its name and, when
// given, its phone. created is true when no user had the email before.
func (s *Service) RegisterUser(ctx context.Context, name, email, phone string) (user *models.User, created bool, err error) {
	const op = "register user"

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" {
		return nil, false, validationError(op, "name and email are required", nil)
	}

	now := s.timestamp()
	user, err = s.users.UpsertByEmail(ctx, name, email, strings.TrimSpace(phone), now)
	if err != nil {
		return nil, false, persistenceError(op, "failed to save user", err)
	}
	created = user.CreatedAt.Equal(now)
	if created {
		zap.S().Infow("user created", "userID", user.ID.Hex())
	}
	return user, created, nil
}

// ResolveOrCreateUser returns the user owning email, creating it if needed
func (s *Service) ResolveOrCreateUser(ctx context.Context, name, email, phone string) (*models.User, error) {
	user, _, err := s.RegisterUser(ctx, name, email, phone)
	return user, err
}

// AdminInput is the profile an admin registers with
type AdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
	City     string `json:"city"`
	District string `json:"district"`
	Province string `json:"province"`
	Phone    string `json:"phone"`
}

// RegisterAdmin creates the admin owning the email or overwrites its profile
func (s *Service) RegisterAdmin(ctx context.Context, in AdminInput) (admin *models.Admin, created bool, err error) {
	const op = "register admin"

	a := models.Admin{
		Name:     strings.TrimSpace(in.Name),
		Email:    NormalizeEmail(in.Email),
		Position: strings.TrimSpace(in.Position),
		City:     strings.TrimSpace(in.City),
		District: strings.TrimSpace(in.District),
		Province: strings.TrimSpace(in.Province),
		Phone:    strings.TrimSpace(in.Phone),
	}
	if a.Name == "" || a.Email == "" || a.City == "" {
		return nil, false, validationError(op, "name, email, and city are required", nil)
	}

	now := s.timestamp()
	admin, err = s.admins.UpsertByEmail(ctx, a, now)
	if err != nil {
		return nil, false, persistenceError(op, "failed to save admin", err)
	}
	return admin, admin.CreatedAt.Equal(now), nil
}

// ResolveAdmin looks up an admin by hex id
func (s *Service) ResolveAdmin(ctx context.Context, adminID string) (*models.Admin, error) {
	const op = "resolve admin"

	if strings.TrimSpace(adminID) == "" {
		return nil, validationError(op, "admin ID is required", nil)
	}
	id, err := ParseID(op, "admin ID", adminID)
	if err != nil {
		return nil, err
	}
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "admin not found", err)
	}
	return admin, nil
}
