package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims are the registered claims plus the caller's email.
type Claims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub"`
	Email     string `json:"email,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// validate checks the temporal claims at now, allowing leeway for clock skew.
// Unset claims are not checked.
func (c Claims) validate(now time.Time, leeway time.Duration) error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if c.ExpiresAt > 0 && now.Add(-leeway).Unix() >= c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now.Add(leeway).Unix() < c.NotBefore {
		return ErrTokenNotYetValid
	}
	return nil
}

// Service signs and verifies tokens with one HMAC key.
type Service struct {
	key    []byte
	now    func() time.Time
	leeway time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLeeway tolerates clock skew between issuer and verifier.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) {
		s.leeway = d
	}
}

func New(key string, opts ...Option) (*Service, error) {
	if key == "" {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: []byte(key), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate signs claims, filling IssuedAt when unset.
func (s *Service) Generate(c Claims) (string, error) {
	if c.Subject == "" {
		return "", ErrMissingSubject
	}
	if c.IssuedAt == 0 {
		c.IssuedAt = s.now().Unix()
	}

	h, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	body, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signed := encode(h) + "." + encode(body)
	return signed + "." + s.sign(signed), nil
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (*Claims, error) {
	h, body, sig, ok := split(token)
	if !ok {
		return nil, ErrInvalidToken
	}

	want := s.sign(h + "." + body)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return nil, ErrInvalidSignature
	}

	var hdr header
	if err := decodeJSON(h, &hdr); err != nil {
		return nil, err
	}
	if hdr.Algorithm != headerAlgorithm {
		return nil, ErrUnexpectedSigningMethod
	}

	var c Claims
	if err := decodeJSON(body, &c); err != nil {
		return nil, err
	}
	if err := c.validate(s.now(), s.leeway); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) sign(payload string) string {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(payload))
	return encode(m.Sum(nil))
}

func split(token string) (string, string, string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeJSON(part string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(part)
	if err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}
	return nil
}
