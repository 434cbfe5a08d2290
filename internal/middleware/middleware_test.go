package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/utils"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/", append(handlers, func(c *gin.Context) {
		id, _ := utils.GetUserIDFromContext(c)
		c.String(http.StatusOK, id)
	})...)
	return r
}

func get(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/", nil)
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveLang(t *testing.T) {
	require.NoError(t, i18n.Initialize("en"))

	assert.Equal(t, "zh_TW", resolveLang("zh-TW,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "zh_TW", resolveLang("zh-tw"))
	assert.Equal(t, "en", resolveLang("en-GB"))
	assert.Equal(t, "en", resolveLang("EN-us;q=0.8"))
	assert.Equal(t, "en", resolveLang("zh-CN"))
	assert.Equal(t, "en", resolveLang("fr"))
	assert.Equal(t, "en", resolveLang(""))
}

func TestAuthRequiredNormalizesCustomerEmail(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	token, err := utils.GenerateJWT(" A@X.Com", string(models.UserTypeCustomer), time.Minute)
	require.NoError(t, err)

	r := newEngine(AuthRequired(), CustomerRequired())

	w := get(r, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", w.Body.String())

	w = get(r, http.Header{"Authorization": {"Basic abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	token, err := utils.GenerateJWT("a@x.com", string(models.UserTypeCustomer), -time.Minute)
	require.NoError(t, err)

	w := get(newEngine(AuthRequired()), http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	customer, err := utils.GenerateJWT("a@x.com", string(models.UserTypeCustomer), time.Minute)
	require.NoError(t, err)
	admin, err := utils.GenerateJWT("root", string(models.UserTypeAdmin), time.Minute)
	require.NoError(t, err)

	r := newEngine(AuthRequired(), AdminRequired())

	w := get(r, http.Header{"Authorization": {"Bearer " + customer}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)
	assert.NotContains(t, w.Body.String(), "a@x.com")

	w = get(r, http.Header{"Authorization": {"Bearer " + admin}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", w.Body.String())
}

func TestRateLimitPerClient(t *testing.T) {
	r := newEngine(RateLimit(1, 2))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)

	w := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Disabled limiter never rejects.
	open := newEngine(RateLimit(0, 0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(open, nil).Code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := newEngine(RequestLogger())

	w := get(r, nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = get(r, http.Header{requestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}
