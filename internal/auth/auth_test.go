package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/apperr"
	"rollcall/internal/store"
)

func newIssuer() *Issuer { return NewIssuer("rollcall", "test-key", time.Hour, 24*time.Hour) }

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewService(mem, newIssuer(), nil)
	svc.cost = bcrypt.MinCost
	return svc, mem
}

func TestSignUpHashesPassword(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	admin, err := svc.SignUp(ctx, "Grace", "grace", "s3cret", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)

	docs, err := mem.List(ctx, store.CollectionAdmin)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	stored := docs[0].Fields["password"].(string)
	assert.NotEqual(t, "s3cret", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("s3cret")))
	assert.Equal(t, "Grace", docs[0].Fields["admin_name"])
}

func TestSignUpValidation(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Grace", "grace", "a", "b")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Passwords don't match, try again", apperr.UserMessage(err))

	_, err = svc.SignUp(ctx, " ", "grace", "a", "a")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	docs, _ := mem.List(ctx, store.CollectionAdmin)
	assert.Empty(t, docs)

	_, err = svc.SignUp(ctx, "Grace", "grace", "a", "a")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "Other", "grace", "b", "b")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "Grace", "grace", "s3cret", "s3cret")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "grace", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Grace", sess.AdminName)

	claims, err := svc.issuer.Parse(sess.Tokens.AccessToken, UseAccess)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "Grace", claims.Name)

	_, err = svc.Login(ctx, "grace", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "Username or password is incorrect.", apperr.UserMessage(err))

	_, err = svc.Login(ctx, "", "s3cret")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginDefaultsAdminName(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = mem.Create(ctx, store.CollectionAdmin, store.Fields{"username": "legacy", "password": string(hash)})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "legacy", "pw")
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminName, sess.AdminName)
}

func TestRefresh(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "Grace", "grace", "pw", "pw")
	require.NoError(t, err)
	sess, err := svc.Login(ctx, "grace", "pw")
	require.NoError(t, err)

	again, err := svc.Refresh(sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "Grace", again.AdminName)
	assert.Equal(t, "grace", again.Username)

	_, err = svc.Refresh(sess.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseRejects(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.Issue("a1", RoleAdmin, "Grace", "grace")
	require.NoError(t, err)

	other := NewIssuer("someone-else", "test-key", time.Hour, time.Hour)
	_, err = other.Parse(pair.AccessToken, UseAccess)
	assert.Error(t, err)

	wrongKey := NewIssuer("rollcall", "other-key", time.Hour, time.Hour)
	_, err = wrongKey.Parse(pair.AccessToken, UseAccess)
	assert.Error(t, err)

	late := newIssuer()
	late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = late.Parse(pair.AccessToken, UseAccess)
	assert.Error(t, err)
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := newIssuer()
	r := gin.New()
	r.GET("/admin", AdminAuth(iss), func(c *gin.Context) {
		claims, ok := FromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Name)
	})

	pair, err := iss.Issue("a1", RoleAdmin, "Grace", "grace")
	require.NoError(t, err)
	student, err := iss.Issue("s1", "student", "", "")
	require.NoError(t, err)

	cases := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Token abc", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"Bearer " + student.AccessToken, http.StatusUnauthorized},
		{"Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, tc.header)
	}
}
