// Package identity provides anonymous per-device identity primitives. It
// supplies a stable default agent name for connections that never declare
// one; there is no credentialed authentication.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

const (
	// AnonCookieName carries the anonymous device identity.
	AnonCookieName   = "sparring_anon_id"
	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	deviceIDKey contextKey = iota
	agentNameKey
)

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// DeviceIDFromContext extracts the anonymous device ID from the request
// context.
func DeviceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(deviceIDKey).(string); ok {
		return v
	}
	return ""
}

// AgentNameFromContext extracts the derived agent name from the request
// context.
func AgentNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(agentNameKey).(string); ok {
		return v
	}
	return ""
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

func deriveAgentName(deviceID string) string {
	if len(deviceID) > 13 {
		return "agent-" + deviceID[len(deviceID)-8:]
	}
	return "agent"
}

func getOrCreateAnonID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	id := ""
	if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
		id = c.Value
	} else {
		generated, err := generateAnonID()
		if err != nil {
			return "", err
		}
		id = generated
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
	return id, nil
}

// Middleware injects the anonymous device identity and derived agent name.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := getOrCreateAnonID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
			ctx = context.WithValue(ctx, agentNameKey, deriveAgentName(deviceID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
