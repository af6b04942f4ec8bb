package authz

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/requestcontext"
)

// Claims are the JWT claims carried by access tokens: who the actor is and
// which role they hold.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates access tokens. Session management and
// token issuance flows live outside this service; it only covers what the
// authorization boundary needs.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     "civid",
		ttl:        time.Hour,
	}
}

// Generate signs a token for the actor with the given role.
func (s *TokenService) Generate(actor id.UserID, role requestcontext.Role, now time.Time) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", derrors.Wrap(err, derrors.CodeInternal, "sign access token")
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the actor and role.
func (s *TokenService) Validate(tokenString string) (id.UserID, requestcontext.Role, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !token.Valid {
		return id.UserID{}, "", derrors.New(derrors.CodeUnauthorized, "invalid access token")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || subject == uuid.Nil {
		return id.UserID{}, "", derrors.New(derrors.CodeUnauthorized, "invalid token subject")
	}
	role := requestcontext.Role(claims.Role)
	switch role {
	case requestcontext.RoleCitizen, requestcontext.RoleOfficer, requestcontext.RoleAdmin:
	default:
		return id.UserID{}, "", derrors.New(derrors.CodeUnauthorized, "invalid token role")
	}
	return id.UserID(subject), role, nil
}
