package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuthenticate(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := map[string]struct {
		opts       AuthOptions
		header     map[string]string
		wantStatus int
		wantUser   string
	}{
		"bearer user_id claim": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"user_id": "42", "exp": exp}),
			},
			wantStatus: http.StatusOK,
			wantUser:   "42",
		},
		"numeric user_id claim": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"user_id": 7, "exp": exp}),
			},
			wantStatus: http.StatusOK,
			wantUser:   "7",
		},
		"token scheme with sub fallback": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Token " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "alice", "exp": exp}),
			},
			wantStatus: http.StatusOK,
			wantUser:   "alice",
		},
		"expired token": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"user_id": "42", "exp": time.Now().Add(-time.Minute).Unix()}),
			},
			wantStatus: http.StatusUnauthorized,
		},
		"missing exp": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"user_id": "42"}),
			},
			wantStatus: http.StatusUnauthorized,
		},
		"wrong secret": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "42", "exp": exp}),
			},
			wantStatus: http.StatusUnauthorized,
		},
		"wrong algorithm": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS384, testSecret, jwt.MapClaims{"user_id": "42", "exp": exp}),
			},
			wantStatus: http.StatusUnauthorized,
		},
		"no identity claim": {
			opts: AuthOptions{Secret: testSecret},
			header: map[string]string{
				"Authorization": "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"exp": exp}),
			},
			wantStatus: http.StatusUnauthorized,
		},
		"no credentials": {
			opts:       AuthOptions{Secret: testSecret},
			wantStatus: http.StatusUnauthorized,
		},
		"user header ignored when untrusted": {
			opts:       AuthOptions{Secret: testSecret},
			header:     map[string]string{HeaderUserID: "99"},
			wantStatus: http.StatusUnauthorized,
		},
		"trusted user header": {
			opts:       AuthOptions{TrustUserHeader: true},
			header:     map[string]string{HeaderUserID: " 99 "},
			wantStatus: http.StatusOK,
			wantUser:   "99",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart/", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			Authenticate(tc.opts)(echoUser()).ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.wantUser, rec.Body.String())
				return
			}
			assert.Equal(t, `Bearer realm="api"`, rec.Header().Get("WWW-Authenticate"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAuthenticateMissingCredentialsMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cart/", nil)
	rec := httptest.NewRecorder()

	CorrelationID(Authenticate(AuthOptions{Secret: testSecret})(echoUser())).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication credentials were not provided", body.Error)
	assert.Equal(t, rec.Header().Get(HeaderCorrelationID), body.CorrelationID)
}
