package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role is a coarse access level carried in the token
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Permission is a fine-grained capability derived from the role
type Permission string

const (
	PermissionChat        Permission = "chat"
	PermissionViewHistory Permission = "view_history"
	PermissionReplyAsOps  Permission = "reply_as_ops"
)

// rolePermissions maps each role to the permissions it grants
var rolePermissions = map[Role][]Permission{
	RoleUser:  {PermissionChat, PermissionViewHistory},
	RoleAdmin: {PermissionChat, PermissionViewHistory, PermissionReplyAsOps},
}

// JWTClaims represents the claims in a JWT token
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries the given role. Admin
// satisfies any role check.
func (c *JWTClaims) HasRole(role Role) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == role
}

// HasPermission reports whether the token's role grants the permission
func (c *JWTClaims) HasPermission(permission Permission) bool {
	for _, p := range rolePermissions[c.Role] {
		if p == permission {
			return true
		}
	}
	return false
}

// GenerateToken generates a new JWT token for a user
func GenerateToken(userID uint, email string, role Role) (string, error) {
	// Get JWT secret from environment variable
	secretKey := getSecretKey()

	// Set expiration time
	expirationTime := time.Now().Add(24 * time.Hour) // Token valid for 24 hours

	if role == "" {
		role = RoleUser
	}

	// Create claims
	claims := &JWTClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign token with secret key
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	secretKey := getSecretKey()

	// Parse the token
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secretKey), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	// Extract claims
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Tokens minted before roles existed default to the lowest role
	if claims.Role == "" {
		claims.Role = RoleUser
	}

	return claims, nil
}

// getSecretKey gets the JWT secret key from environment variables
func getSecretKey() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Fallback to a default secret for development (not recommended for production)
		secret = "devJwtSecretDoNotUseInProduction"
	}
	return secret
}
