package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Token validation failures.
var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
	ErrNoSecret     = errors.New("download signing secret missing")
)

const macBytes = 20

// Grant is the verified content of a download token.
type Grant struct {
	// Key is the storage key, "<jobID>/<filename>".
	Key       string
	ExpiresAt time.Time
}

// JobID returns the export job that owns the granted file.
func (g Grant) JobID() string {
	id, _, _ := strings.Cut(g.Key, "/")
	return id
}

// Filename returns the stored file name without its job directory.
func (g Grant) Filename() string {
	_, name, found := strings.Cut(g.Key, "/")
	if !found {
		return g.Key
	}
	return name
}

// SignedURLSigner issues HMAC-SHA256 download tokens that expire after a fixed TTL.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl defaults to 24 hours.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for a storage key of the form "<jobID>/<filename>".
// The token is "<key>.<expiry>.<mac>", each part URL-safe.
func (s *SignedURLSigner) Sign(key string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	if jobID, name, ok := strings.Cut(key, "/"); !ok || jobID == "" || name == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := base64.RawURLEncoding.EncodeToString([]byte(key)) + "." + strconv.FormatInt(expiresAt.Unix(), 36)
	return payload + "." + s.mac(payload), expiresAt, nil
}

// Verify checks a token's signature and, unless allowExpired, its expiry.
func (s *SignedURLSigner) Verify(token string, allowExpired bool) (Grant, error) {
	cut := strings.LastIndexByte(token, '.')
	if cut <= 0 {
		return Grant{}, ErrInvalidToken
	}
	payload, sig := token[:cut], token[cut+1:]
	if !hmac.Equal([]byte(s.mac(payload)), []byte(sig)) {
		return Grant{}, ErrInvalidToken
	}
	encodedKey, encodedExpiry, ok := strings.Cut(payload, ".")
	if !ok {
		return Grant{}, ErrInvalidToken
	}
	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return Grant{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(encodedExpiry, 36, 64)
	if err != nil {
		return Grant{}, ErrInvalidToken
	}
	grant := Grant{Key: string(key), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(grant.ExpiresAt) {
		return Grant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:macBytes])
}
