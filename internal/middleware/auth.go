package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const HeaderUserID = "X-User-Id"

var errMissingCredentials = errors.New("authentication credentials were not provided")

type AuthOptions struct {
	// Secret verifies HS256 bearer tokens. Empty disables token auth.
	Secret []byte
	// TrustUserHeader accepts X-User-Id as set by a trusted gateway.
	TrustUserHeader bool
	Logger          *slog.Logger
}

// Authenticate resolves the caller and stores the user id in the request
// context. Requests without a valid identity get 401.
func Authenticate(opts AuthOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveUser(r, opts)
			if err != nil {
				if !errors.Is(err, errMissingCredentials) {
					logger.InfoContext(r.Context(), "rejected credentials",
						"error", err,
						"correlation_id", GetCorrelationID(r.Context()),
					)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeError(w, r, http.StatusUnauthorized, errorResponse{Error: unauthorizedMessage(err)})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func resolveUser(r *http.Request, opts AuthOptions) (string, error) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok && len(opts.Secret) > 0 {
		return parseToken(token, opts.Secret)
	}

	if opts.TrustUserHeader {
		if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
			return uid, nil
		}
	}
	return "", errMissingCredentials
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseToken(raw string, secret []byte) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	if uid := claimString(claims["user_id"]); uid != "" {
		return uid, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", errors.New("token has no user identity")
}

// claimString accepts string and numeric user ids.
func claimString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, errMissingCredentials) {
		return errMissingCredentials.Error()
	}
	return "invalid or expired token"
}
