package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certean-billing/pkg/utils"
)

const secret = "middleware-secret"

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.Use(handlers...)
	r.GET("/clients/:client_id", func(c *gin.Context) {
		if !AuthorizeClient(c, c.Param("client_id")) {
			utils.AbortWithError(c, utils.ErrClientMismatch)
			return
		}
		utils.RespondSuccess(c, gin.H{"trace": c.GetString("trace_id")}, "ok")
	})
	return r
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTraceID(t *testing.T) {
	r := newEngine()

	w := get(r, "/clients/acme", nil)
	generated := w.Header().Get(TraceHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)

	inbound := uuid.NewString()
	w = get(r, "/clients/acme", map[string]string{TraceHeader: inbound})
	assert.Equal(t, inbound, w.Header().Get(TraceHeader))

	w = get(r, "/clients/acme", map[string]string{TraceHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(TraceHeader))
}

func TestJWTAuth_DisabledWithoutSecret(t *testing.T) {
	r := newEngine(JWTAuthMiddleware(""))
	assert.Equal(t, http.StatusOK, get(r, "/clients/anyone", nil).Code)
}

func TestJWTAuth(t *testing.T) {
	r := newEngine(JWTAuthMiddleware(secret))

	assert.Equal(t, http.StatusUnauthorized, get(r, "/clients/acme", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/clients/acme", map[string]string{"Authorization": "Bearer garbage"}).Code)

	expired, err := utils.CreateToken([]byte(secret), "acme", "", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/clients/acme", map[string]string{"Authorization": "Bearer " + expired}).Code)

	wrongKey, err := utils.CreateToken([]byte("other"), "acme", "", time.Hour)
	require.NoError(t, err)
	w := get(r, "/clients/acme", map[string]string{"Authorization": "Bearer " + wrongKey})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"unauthorized: `)

	token, err := utils.CreateToken([]byte(secret), "acme", "", time.Hour)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}
	assert.Equal(t, http.StatusOK, get(r, "/clients/acme", auth).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/clients/globex", auth).Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newEngine(JWTAuthMiddleware(secret), RoleMiddleware(utils.RoleAdmin))

	user, err := utils.CreateToken([]byte(secret), "acme", "", time.Hour)
	require.NoError(t, err)
	w := get(r, "/clients/acme", map[string]string{"Authorization": "Bearer " + user})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin role required")

	admin, err := utils.CreateToken([]byte(secret), "", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "/clients/globex", map[string]string{"Authorization": "Bearer " + admin}).Code)
}
