package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tmuthee9044/netbill-backend/internal/modules/user"
)

type fakeUserRepo struct {
	byEmail map[string]*user.User
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *user.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]*user.User, error) { return nil, nil }

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	for _, u := range f.byEmail {
		if u.ID.String() == id {
			u.IsActive = active
		}
	}
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, active bool) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test Staff",
		Role:         user.RoleFinance,
		IsActive:     active,
	}
	repo.byEmail[email] = u
	return u
}

const testSecret = "test-signing-key"

func TestLogin(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*user.User{}}
	svc := NewService(repo, testSecret)
	seedUser(t, repo, "finance@netbill.test", "s3cret", true)

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		token, err := svc.Login(t.Context(), "finance@netbill.test", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		_, err := svc.Login(t.Context(), "finance@netbill.test", "wrong")
		require.Error(t, err)
		assert.Equal(t, "invalid credentials", err.Error())
	})

	t.Run("rejects an unknown account with the same message", func(t *testing.T) {
		_, err := svc.Login(t.Context(), "nobody@netbill.test", "s3cret")
		require.Error(t, err)
		assert.Equal(t, "invalid credentials", err.Error())
	})

	t.Run("rejects a deactivated account", func(t *testing.T) {
		seedUser(t, repo, "gone@netbill.test", "s3cret", false)
		_, err := svc.Login(t.Context(), "gone@netbill.test", "s3cret")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deactivated")
	})
}

func TestRequireAuth(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*user.User{}}
	svc := NewService(repo, testSecret)
	staff := seedUser(t, repo, "finance@netbill.test", "s3cret", true)

	var gotUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(ContextKeyUserID).(string)
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(testSecret)(inner)

	t.Run("passes a valid token and injects the staff id", func(t *testing.T) {
		token, err := svc.Login(t.Context(), "finance@netbill.test", "s3cret")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, staff.ID.String(), gotUserID)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		other := NewService(repo, "different-key")
		token, err := other.Login(t.Context(), "finance@netbill.test", "s3cret")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
