package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskwave-api/internal/auth"
	"github.com/yukikurage/taskwave-api/internal/metrics"
)

func newAuthRouter(t *testing.T, tokens *auth.TokenManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(), RequestLogger())
	r.GET("/private", RequireAuth(tokens), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	return r
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthRouter(t, tokens)

	valid, err := tokens.Generate("user-1")
	require.NoError(t, err)

	other, err := auth.NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Generate("user-1")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", "Bearer garbage", http.StatusForbidden, "INVALID_TOKEN"},
		{"wrong secret", "Bearer " + forged, http.StatusForbidden, "INVALID_TOKEN"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, tc.header)
			assert.Equal(t, tc.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
			} else {
				assert.Equal(t, "user-1", body["userId"])
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set("user_id", 42)
	_, ok = GetUserID(c)
	assert.False(t, ok)
}

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthRouter(t, tokens)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/private", "401")
	before := testutil.ToFloat64(counter)

	doRequest(r, "")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
