package utils

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "ims-backend"

var (
	jwtMu          sync.RWMutex
	jwtSecretKey   []byte
	accessTokenTTL = time.Hour
)

// ConfigureJWT sets the signing secret and access token lifetime. It must run before tokens are issued.
func ConfigureJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecretKey = []byte(secret)
	if ttl > 0 {
		accessTokenTTL = ttl
	}
}

func signingKey() ([]byte, error) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	if len(jwtSecretKey) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	return jwtSecretKey, nil
}

// Claims defines the JWT claims structure. The subject carries the employee ID.
type Claims struct {
	EmployeeID int64  `json:"employee_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed HS256 access token for an employee.
func GenerateAccessToken(employeeID int64, role string) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	jwtMu.RLock()
	ttl := accessTokenTTL
	jwtMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		EmployeeID: employeeID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(employeeID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
func ValidateToken(tokenString string) (*Claims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.EmployeeID == 0 {
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, errors.New("token subject is not an employee id")
		}
		claims.EmployeeID = id
	}
	return claims, nil
}
