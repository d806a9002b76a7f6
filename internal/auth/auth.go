package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codearena/codearena-backend/pkg/errors"
)

// Claims identify the player behind a connection or request.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager verifies HS256 tokens issued by the account service. A manager
// with an empty secret is disabled and accepts every caller.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (m *Manager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

// Issue signs a token for username. Used by tooling and tests; players get
// their tokens from the account service.
func (m *Manager) Issue(userID, username string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.InternalServerError)
	}
	return signed, nil
}

func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New(errors.Unauthorized)
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf(errors.TokenInvalid, "unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, errors.Wrap(err, errors.TokenInvalid)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, errors.New(errors.TokenInvalid)
	}
	return claims, nil
}
