package services

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"smart-vault-backend/internal/models"
)

var (
	ErrTokenLifetime = errors.New("token lifetime exceeds the allowed maximum")
	ErrDigestMissing = errors.New("token does not carry a body digest")
	ErrDigestInvalid = errors.New("request body does not match the signed digest")
	ErrTokenID       = errors.New("token does not carry an id")
	ErrRouteMismatch = errors.New("token was signed for a different method or path")
)

// Claims binds a caller identity (the subject) to one request: its method,
// path and body.
type Claims struct {
	Method string `json:"htm"`
	Path   string `json:"htu"`
	Digest string `json:"digest,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies EdDSA call tokens. There is no shared
// secret: the subject is the caller's public key and the token must verify
// against it.
type JWTService struct {
	maxAge time.Duration
	now    func() time.Time
}

func NewJWTService(maxAge time.Duration) *JWTService {
	return &JWTService{maxAge: maxAge, now: time.Now}
}

// BodyDigest is the hex keccak256 of a request body.
func BodyDigest(body []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *JWTService) MaxAge() time.Duration {
	return s.maxAge
}

// CallEntropy is the call data handed to the ledger: keccak256 of the token,
// which is unique per call, followed by the raw body.
func CallEntropy(token string, body []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(token))
	return append(h.Sum(nil), body...)
}

func requestPath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	return path
}

// IssueToken signs a single-use token for one request. A query string on
// path is ignored.
func (s *JWTService) IssueToken(key ed25519.PrivateKey, method, path string, body []byte) (string, error) {
	signer, err := models.IdentityFromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := &Claims{
		Method: strings.ToUpper(method),
		Path:   requestPath(path),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   signer.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}
	if body != nil {
		claims.Digest = BodyDigest(body)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, models.Identity, error) {
	var signer models.Identity

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return nil, err
		}
		if signer, err = models.ParseIdentity(sub); err != nil {
			return nil, errors.Wrap(err, "invalid subject")
		}
		return signer.PublicKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, models.Identity{}, err
	}

	if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > s.maxAge {
		return nil, models.Identity{}, ErrTokenLifetime
	}
	if claims.ID == "" {
		return nil, models.Identity{}, ErrTokenID
	}
	return claims, signer, nil
}

// VerifyRoute checks the token was signed for this method and path.
func (c *Claims) VerifyRoute(method, path string) error {
	if c.Method != method || c.Path != requestPath(path) {
		return ErrRouteMismatch
	}
	return nil
}

// VerifyBody checks the token was signed for exactly this body.
func (c *Claims) VerifyBody(body []byte) error {
	if c.Digest == "" {
		return ErrDigestMissing
	}
	if c.Digest != BodyDigest(body) {
		return ErrDigestInvalid
	}
	return nil
}
