package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"knitmes/internal/config"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/repository"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active || includeInactive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newAuthFixture(t *testing.T) (*stubUserRepo, AuthService) {
	t.Helper()
	users := newStubUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("floor1234"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Username:     "ravi",
		Name:         "Ravi Kumar",
		PasswordHash: string(hash),
		Role:         model.RoleOperator,
		Active:       true,
	}))
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
	return users, NewAuthService(users, cfg)
}

func TestLogin(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "ravi", Password: "floor1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, model.RoleOperator, resp.User.Role)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "ravi", Password: "wrong"})
	require.Error(t, err)
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "ghost", Password: "floor1234"})
	require.Error(t, err)
}

func TestRefresh(t *testing.T) {
	users, svc := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "ravi", Password: "floor1234"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, "not-a-token")
	require.Error(t, err)

	// Deactivated users cannot refresh.
	u, err := users.FindByUsername(ctx, "ravi")
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(ctx, u.ID))
	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.Error(t, err)
}

func TestCreateAndListUsers(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Username: "meera",
		Name:     "Meera Shah",
		Password: "supervise1",
		Role:     model.RoleSupervisor,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSupervisor, created.Role)
	assert.True(t, created.Active)

	// The new supervisor can log in with the plaintext password.
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "meera", Password: "supervise1"})
	require.NoError(t, err)

	all, err := svc.ListUsers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeactivateUser(ctx, uuid.MustParse(created.ID)))
	active, err := svc.ListUsers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	everyone, err := svc.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, everyone, 2)
}
