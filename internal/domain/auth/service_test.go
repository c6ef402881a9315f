package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/user"
)

type fakeUserRepo struct {
	users map[id.ID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[id.ID]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if !existing.IsDeleted() && existing.Email == u.Email {
			return apperror.NewDuplicate("user", "email", u.Email)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID id.ID) (*user.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if !u.IsDeleted() && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if !u.IsDeleted() && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, userID id.ID, role user.Role) error {
	u, ok := r.users[userID]
	if !ok || u.IsDeleted() {
		return apperror.NewNotFound("user", userID.String())
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) SetRefreshTokenHash(_ context.Context, userID id.ID, hash *string) error {
	u, ok := r.users[userID]
	if !ok || u.IsDeleted() {
		return apperror.NewNotFound("user", userID.String())
	}
	u.RefreshTokenHash = hash
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *fakeUserRepo) *Service {
	jwtCfg := JWTConfig{
		Secret:         "test-secret-that-is-long-enough-00",
		Issuer:         "vboard",
		AccessTokenTTL: 15 * time.Minute,
	}
	return NewService(repo, passthroughTxManager{}, NewJWTService(jwtCfg), DefaultServiceConfig())
}

func register(t *testing.T, svc *Service, email string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: "tester",
		Email:    email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return u
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	u := register(t, svc, "a@b.dev")

	if u.Role != user.RoleUser {
		t.Errorf("new user role: want %s, got %s", user.RoleUser, u.Role)
	}
	if u.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "tester",
		Email:    "a@b.dev",
		Password: "short",
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("want VALIDATION_ERROR, got %v", err)
	}
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	register(t, svc, "a@b.dev")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "other",
		Email:    "a@b.dev",
		Password: "password123",
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Errorf("want CONFLICT, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	registered := register(t, svc, "a@b.dev")

	tokens, u, err := svc.Login(context.Background(), Credentials{Email: "a@b.dev", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != registered.ID {
		t.Error("login returned the wrong user")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("token type: want Bearer, got %s", tokens.TokenType)
	}

	uc, err := svc.jwtService.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}
	if uc.UserID != registered.ID.String() {
		t.Errorf("access token user: want %s, got %s", registered.ID, uc.UserID)
	}

	stored := repo.users[registered.ID].RefreshTokenHash
	if stored == nil || !tokenHashMatches(tokens.RefreshToken, *stored) {
		t.Error("refresh token hash not stored on the user row")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	register(t, svc, "a@b.dev")

	cases := []Credentials{
		{Email: "a@b.dev", Password: "wrong-password"},
		{Email: "nobody@b.dev", Password: "password123"},
	}
	for _, creds := range cases {
		_, _, err := svc.Login(context.Background(), creds)
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeUnauthorized {
			t.Errorf("creds %s: want UNAUTHORIZED, got %v", creds.Email, err)
		}
		if ok && appErr.Message != "invalid credentials" {
			t.Errorf("message must not reveal which field was wrong, got %q", appErr.Message)
		}
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	registered := register(t, svc, "a@b.dev")

	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "a@b.dev", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("empty rotated pair")
	}

	stored := repo.users[registered.ID].RefreshTokenHash
	if stored == nil || !tokenHashMatches(rotated.RefreshToken, *stored) {
		t.Error("rotation must store the new refresh token hash")
	}
}

func TestRefresh_RejectsRevokedToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	registered := register(t, svc, "a@b.dev")

	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "a@b.dev", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), registered.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeUnauthorized {
		t.Errorf("want UNAUTHORIZED after logout, got %v", err)
	}
}

func TestRefresh_RejectsGarbageToken(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeUnauthorized {
		t.Errorf("want UNAUTHORIZED, got %v", err)
	}
}

func TestRefresh_RejectsTombstonedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	registered := register(t, svc, "a@b.dev")

	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "a@b.dev", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	now := time.Now().UTC()
	repo.users[registered.ID].DeletedAt = &now

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeUnauthorized {
		t.Errorf("want UNAUTHORIZED for deleted account, got %v", err)
	}
}

func TestPromoteToAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	registered := register(t, svc, "a@b.dev")

	if err := svc.PromoteToAdmin(context.Background(), registered.ID); err != nil {
		t.Fatalf("PromoteToAdmin failed: %v", err)
	}
	if repo.users[registered.ID].Role != user.RoleAdmin {
		t.Error("role not updated")
	}

	// Promoting an admin again is a no-op, not an error.
	if err := svc.PromoteToAdmin(context.Background(), registered.ID); err != nil {
		t.Errorf("repeat promote must succeed, got %v", err)
	}
}
