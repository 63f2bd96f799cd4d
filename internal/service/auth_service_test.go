package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type userRepoStub struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created *models.User
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	s.created = user
	return nil
}

type roleReaderStub struct {
	roles map[string]*models.Role
}

func (s roleReaderStub) FindByID(ctx context.Context, id string) (*models.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return role, nil
}

func authFixtures(t *testing.T) (*userRepoStub, roleReaderStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "u1", Name: "Alice", Email: "alice@shop.example", PasswordHash: string(hash), RoleID: "r1"}
	users := &userRepoStub{
		byEmail: map[string]*models.User{user.Email: user},
		byID:    map[string]*models.User{user.ID: user},
	}
	roles := roleReaderStub{roles: map[string]*models.Role{
		"r1": {ID: "r1", Name: "Technician", Permissions: models.Permissions{
			models.ResourceOrders: {models.ActionRead, models.ActionUpdate},
		}},
	}}
	return users, roles
}

func testAuthService(users *userRepoStub, roles roleReaderStub) *AuthService {
	return NewAuthService(users, roles, nil, nil, AuthConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "servicedesk",
	})
}

func TestLoginIssuesTokenAndProfile(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "alice@shop.example", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "Technician", resp.User.RoleName)
	assert.Contains(t, resp.User.Permissions, models.ResourceOrders)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "r1", claims.RoleID)
}

func TestLoginWrongPassword(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "alice@shop.example", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@shop.example", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRegisterHashesPassword(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	profile, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Bruno",
		Email:    "bruno@shop.example",
		Password: "super secret",
		RoleID:   "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Technician", profile.RoleName)

	require.NotNil(t, users.created)
	assert.NotEqual(t, "super secret", users.created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.created.PasswordHash), []byte("super secret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Impostor",
		Email:    "alice@shop.example",
		Password: "super secret",
		RoleID:   "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	users, roles := authFixtures(t)
	svc := testAuthService(users, roles)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
