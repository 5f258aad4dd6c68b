package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 8 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Subject is what gets signed into a session token.
type Subject struct {
	ID       string
	Role     string
	Username string
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

func (c *Codec) TTL() time.Duration { return c.ttl }

func (c *Codec) IssueDefault(s Subject) (string, *Claims, error) {
	return c.Issue(s, c.ttl)
}

// Issue signs s with an absolute expiry of now+ttl. A negative ttl yields an
// already expired token.
func (c *Codec) Issue(s Subject, ttl time.Duration) (string, *Claims, error) {
	claims := &Claims{
		Role:     s.Role,
		Username: s.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
