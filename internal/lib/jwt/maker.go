// Package jwt реализует выпуск и проверку JWT токенов пользователей bookflix.
//
// Maker выпускает пару access/refresh токенов, подписанных HS256,
// и разбирает их обратно в CustomClaims с проверкой типа токена.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен заданного типа для пользователя.
	GenerateToken(userUID, username, role string, tokenType TokenType) (string, error)
	// ParseToken проверяет подпись, срок действия и тип токена.
	ParseToken(tokenStr string, tokenType TokenType) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токенов.
type MakerImpl struct {
	secretKey  string        // Секретный ключ для подписи токенов.
	accessTTL  time.Duration // Время жизни access токена.
	refreshTTL time.Duration // Время жизни refresh токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (j *MakerImpl) ttl(tokenType TokenType) time.Duration {
	if tokenType == RefreshToken {
		return j.refreshTTL
	}
	return j.accessTTL
}
