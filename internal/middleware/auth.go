package middleware

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/nacl/secretbox"
)

type contextKey string

const (
	sessionKey  contextKey = "session"
	sessionsKey contextKey = "sessions"
)

const SessionCookieName = "studynotes_session"

var ErrSessionInvalid = errors.New("invalid session")

// Session is what SessionAuth attaches to the request context.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Sessions mirrors the backend bearer token into a sealed httpOnly cookie.
// The token is never readable by page scripts; the cookie value is the
// token encrypted with a key derived from the cookie secret.
type Sessions struct {
	key    [32]byte
	secure bool
	maxAge time.Duration
}

func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{
		key:    sha256.Sum256([]byte(secret)),
		secure: secure,
		maxAge: 7 * 24 * time.Hour,
	}
}

func (s *Sessions) Seal(token string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *Sessions) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrSessionInvalid
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	token, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", ErrSessionInvalid
	}
	return string(token), nil
}

// SetCookie stores token in the session cookie. The cookie lives as long
// as the token when the token carries an expiry.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) error {
	value, err := s.Seal(token)
	if err != nil {
		return err
	}

	expires := time.Now().Add(s.maxAge)
	if claims, err := ReadClaims(token); err == nil && !claims.ExpiresAt.IsZero() {
		expires = claims.ExpiresAt
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest opens the session cookie and checks the token has not
// expired.
func (s *Sessions) FromRequest(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrSessionInvalid
	}
	token, err := s.Open(cookie.Value)
	if err != nil {
		return Session{}, err
	}

	claims, err := ReadClaims(token)
	if err != nil {
		return Session{}, err
	}
	if !claims.ExpiresAt.IsZero() && time.Now().After(claims.ExpiresAt) {
		return Session{}, jwt.ErrTokenExpired
	}
	return Session{Token: token, UserID: claims.UserID, ExpiresAt: claims.ExpiresAt}, nil
}

// Middleware requires a valid session and attaches it to the context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.FromRequest(r)
		if err != nil {
			if _, cerr := r.Cookie(SessionCookieName); cerr == nil {
				s.ClearCookie(w)
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not signed in", r)
			}
			return
		}
		ctx := context.WithValue(WithSession(r.Context(), sess), sessionsKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EndSession clears the session cookie of a request that came through
// Sessions.Middleware, forcing the user to sign in again.
func EndSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := r.Context().Value(sessionsKey).(*Sessions); ok {
		s.ClearCookie(w)
	}
}

type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// ReadClaims reads the subject and expiry of a bearer token without
// verifying its signature; only the backend holds the signing key. Opaque
// (non-JWT) tokens get a stable id derived from the token and no expiry.
func ReadClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrSessionInvalid
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		sum := sha256.Sum256([]byte(token))
		return Claims{UserID: "anon-" + hex.EncodeToString(sum[:8])}, nil
	}

	var c Claims
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.UserID, _ = mc.GetSubject()
	if c.UserID == "" {
		c.UserID, _ = mc["user_id"].(string)
	}
	if c.UserID == "" {
		sum := sha256.Sum256([]byte(token))
		c.UserID = "anon-" + hex.EncodeToString(sum[:8])
	}
	return c, nil
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func GetSession(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
