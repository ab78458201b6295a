package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The gateway keeps no server-side session table. A login cookie is a signed
// token carrying the username, a snapshot of the password payload it was
// issued against, and the issue time. Verification recomputes validity from
// the live password record, so changing a password orphans every outstanding
// token without a revocation list.

var ErrInvalidToken = errors.New("invalid session token")

type Token struct {
	Username        string
	PasswordPayload string
	IssuedAt        time.Time
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// CookieName returns the login cookie name for one contest namespace.
func CookieName(contest string) string {
	return contest + "_login"
}

// CounterCookieName returns the unread-counter cookie name for one contest.
func CounterCookieName(contest string) string {
	return contest + "_unread_count"
}

type loginClaims struct {
	Password string `json:"pwd"`
	jwt.RegisteredClaims
}

func (s *Signer) Issue(contest string, tok Token) (string, error) {
	claims := loginClaims{
		Password: tok.PasswordPayload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  tok.Username,
			Audience: jwt.ClaimStrings{contest},
			IssuedAt: jwt.NewNumericDate(tok.IssuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Signer) Decode(contest, value string) (Token, error) {
	var claims loginClaims
	token, err := jwt.ParseWithClaims(value, &claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(contest))
	if err != nil || !token.Valid {
		return Token{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return Token{}, ErrInvalidToken
	}
	return Token{
		Username:        claims.Subject,
		PasswordPayload: claims.Password,
		IssuedAt:        claims.IssuedAt.Time,
	}, nil
}

// IssueCounter signs the per-contest unread counter.
func (s *Signer) IssueCounter(contest string, count int) (string, error) {
	claims := jwt.MapClaims{
		"aud": contest,
		"cnt": strconv.Itoa(count),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// DecodeCounter returns the signed counter value, or an error for missing,
// forged or foreign-contest cookies. Callers treat errors as "start at 0".
func (s *Signer) DecodeCounter(contest, value string) (int, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(value, claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(contest))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	raw, ok := claims["cnt"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, ErrInvalidToken
	}
	return count, nil
}

func (s *Signer) keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

// SetCookie writes a host-managed cookie (no expiry of our own).
func SetCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie instructs the client to drop a cookie. Logout is client-side
// only; there is no server state to tear down.
func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
}
