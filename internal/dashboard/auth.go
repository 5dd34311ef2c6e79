package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued by `sf token`.
const DefaultTokenTTL = 30 * 24 * time.Hour

// ErrNoSubject is returned for a token without a user ID.
var ErrNoSubject = errors.New("dashboard: token has no subject")

// Claims identify the caller of the API. The subject is the user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Auth signs and verifies HS256 bearer tokens.
type Auth struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewAuth returns an Auth for secret and issuer. now may be nil.
func NewAuth(secret, issuer string, now func() time.Time) (*Auth, error) {
	if secret == "" {
		return nil, errors.New("dashboard: jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Auth{secret: []byte(secret), issuer: issuer, now: now}, nil
}

// Issue returns a signed token for userID valid for ttl.
func (a *Auth) Issue(userID, email string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrNoSubject
	}
	now := a.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("dashboard: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (a *Auth) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}
	return &claims, nil
}

const claimsKey = "claims"

// middleware rejects requests without a valid bearer token. EventSource
// clients cannot set headers, so the token may also come as ?access_token.
func (a *Auth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, value, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				return
			}
			token = value
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		claims, err := a.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func currentClaims(c *gin.Context) *Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*Claims)
	if claims == nil {
		return &Claims{}
	}
	return claims
}

func currentUser(c *gin.Context) string {
	return currentClaims(c).Subject
}
