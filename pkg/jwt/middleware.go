package jwt

import (
	"context"
	"net/http"
	"strings"
)

// TokenExtractorFunc extracts a token string from an HTTP request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>" headers,
// the standard JWT transport per RFC 6750.
func BearerTokenExtractor(r *http.Request) (string, error) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// QueryTokenExtractor reads tokens from a URL query parameter. Browsers
// cannot set headers on a websocket handshake, so the live channel
// accepts ?token= as a fallback.
func QueryTokenExtractor(param string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get(param)
		if token == "" {
			return "", ErrInvalidToken
		}
		return token, nil
	}
}

// FirstTokenExtractor tries extractors in order and returns the first
// token found.
func FirstTokenExtractor(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			if token, err := ex(r); err == nil {
				return token, nil
			}
		}
		return "", ErrInvalidToken
	}
}

type claimsContextKey struct{}

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, claims StandardClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (StandardClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(StandardClaims)
	return claims, ok
}

// Middleware validates the bearer token on every request and injects
// its claims into the request context. Requests without a valid token
// are rejected with 401 before reaching the handler.
func Middleware(service *Service, extractor TokenExtractorFunc) func(next http.Handler) http.Handler {
	if extractor == nil {
		extractor = BearerTokenExtractor
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractor(r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			var claims StandardClaims
			if err := service.Parse(token, &claims); err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
