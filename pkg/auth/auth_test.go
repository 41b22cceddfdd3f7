package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3gredo"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthenticator("admin", string(hash), "test-secret", time.Hour, false)
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)

	require.NoError(t, a.Authenticate("admin", "s3gredo"))
	require.NoError(t, a.Authenticate("  admin ", " s3gredo  "))
	assert.ErrorIs(t, a.Authenticate("admin", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.Authenticate("root", "s3gredo"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.Authenticate("", ""), ErrInvalidCredentials)
}

func TestAuthenticateWithoutHashRejects(t *testing.T) {
	a := NewAuthenticator("admin", "", "secret", time.Hour, false)
	assert.ErrorIs(t, a.Authenticate("admin", ""), ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("abc123")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abc123")))
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator(t)
	token, err := a.IssueToken()
	require.NoError(t, err)
	require.NoError(t, a.VerifyToken(token))
}

func TestTokenExpires(t *testing.T) {
	a := newTestAuthenticator(t)
	token, err := a.IssueToken()
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, a.VerifyToken(token), ErrInvalidToken)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	other := NewAuthenticator("admin", "", "other-secret", time.Hour, false)
	token, err := other.IssueToken()
	require.NoError(t, err)

	a := newTestAuthenticator(t)
	assert.ErrorIs(t, a.VerifyToken(token), ErrInvalidToken)
	assert.ErrorIs(t, a.VerifyToken(""), ErrInvalidToken)
	assert.ErrorIs(t, a.VerifyToken("garbage"), ErrInvalidToken)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAuthenticator(t)
	r := gin.New()
	r.GET("/private", a.RequireAdmin(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := a.IssueToken()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetCookieIsHTTPOnlySessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAuthenticator(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/dashboard/login", nil)

	a.SetCookie(c, "tok")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Zero(t, cookies[0].MaxAge)
}
