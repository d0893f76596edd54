package account

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates tokens sharing the same signing key
type TokenKind string

const (
	TokenKindUserAuth       TokenKind = "USER_AUTH"
	TokenKindUserActivation TokenKind = "USER_ACTIVATION"
)

// SubjectPathPrefix is the resource path prefix used as token subject
const SubjectPathPrefix = "/api/users/"

// Claims is the token payload:
//
//	{"id": "/api/users/<id>", "exp": <unix>, "roles": [...], "kind": "USER_AUTH"}
type Claims struct {
	UserPath string    `json:"id"`
	Roles    []Role    `json:"roles,omitempty"`
	Kind     TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// UserID decodes the numeric id from the subject path
func (c *Claims) UserID() (int64, error) {
	return DecodeSubject(c.UserPath)
}

// ExtraClaims are optional claims merged into an issued token
type ExtraClaims struct {
	Roles []Role
}

// TokenCodec signs and verifies HS256 tokens with a shared secret.
type TokenCodec struct {
	signingKey []byte
	now        func() time.Time
}

// NewTokenCodec creates a codec for the given secret
func NewTokenCodec(signingKey []byte) *TokenCodec {
	return &TokenCodec{
		signingKey: signingKey,
		now:        time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (tc *TokenCodec) WithClock(clock func() time.Time) *TokenCodec {
	if clock != nil {
		tc.now = clock
	}
	return tc
}

// Issue signs a token for subjectPath whose exp is now + ttl
func (tc *TokenCodec) Issue(subjectPath string, kind TokenKind, ttl time.Duration, extra ExtraClaims) (string, time.Time, error) {
	expiresAt := tc.now().Add(ttl)

	claims := &Claims{
		UserPath: subjectPath,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	if len(extra.Roles) > 0 {
		claims.Roles = append([]Role(nil), extra.Roles...)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", time.Time{}, internalError(err, "failed to sign token")
	}

	return signed, expiresAt, nil
}

// Verify checks signature, expiration and kind. Every failure is an
// InvalidToken error; ReasonOf tells them apart.
func (tc *TokenCodec) Verify(tokenString string, expected TokenKind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return tc.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)

	if err != nil {
		return nil, newReasonError(KindInvalidToken, tokenErrorReason(err), nil)
	}

	if !token.Valid {
		return nil, newReasonError(KindInvalidToken, ReasonTokenInvalidSignature, nil)
	}

	if claims.Kind != expected {
		return nil, newReasonError(KindInvalidToken, ReasonTokenKindMismatch, map[string]any{
			"expected": string(expected),
			"kind":     string(claims.Kind),
		})
	}

	return claims, nil
}

func tokenErrorReason(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ReasonTokenMalformed
	default:
		return ReasonTokenInvalidSignature
	}
}

// EncodeSubject returns the resource path for a user id
func EncodeSubject(id int64) string {
	return SubjectPathPrefix + strconv.FormatInt(id, 10)
}

// DecodeSubject extracts the user id from a resource path. Anything that is
// not /api/users/<digits> fails with a MalformedSubject reason.
func DecodeSubject(path string) (int64, error) {
	raw, ok := strings.CutPrefix(path, SubjectPathPrefix)
	if !ok || raw == "" {
		return 0, newReasonError(KindInvalidToken, ReasonTokenMalformedSubject, map[string]any{"subject": path})
	}

	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, newReasonError(KindInvalidToken, ReasonTokenMalformedSubject, map[string]any{"subject": path})
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, newReasonError(KindInvalidToken, ReasonTokenMalformedSubject, map[string]any{"subject": path})
	}

	return id, nil
}
