package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType различает access и refresh токены.
type TokenType string

const (
	// AccessToken используется для авторизации запросов.
	AccessToken TokenType = "access"
	// RefreshToken обменивается на новый access токен.
	RefreshToken TokenType = "refresh"
)

// ErrWrongTokenType токен валиден, но выпущен для другой цели.
var ErrWrongTokenType = errors.New("wrong token type")

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserUID              string    `json:"user_uid"`
	Username             string    `json:"username"`
	Role                 string    `json:"role"`
	TokenType            TokenType `json:"token_type"`
	jwt.RegisteredClaims           // ExpiresAt, IssuedAt, Subject
}

// GenerateToken создает JWT токен, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(userUID, username, role string, tokenType TokenType) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := CustomClaims{
		UserUID:   userUID,
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl(tokenType))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит JWT токен, проверяет подпись, срок действия и тип.
func (j *MakerImpl) ParseToken(tokenStr string, tokenType TokenType) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongTokenType)
	}
	return claims, nil
}
