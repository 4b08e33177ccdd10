// Package password реализует хеширование паролей пользователей и базовую проверку их сложности.
//
// Hash создает bcrypt-хеш для хранения в таблице users, Compare сверяет хеш с введенным паролем,
// Validate отклоняет слишком короткие, слишком длинные и чисто цифровые пароли.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength минимальная длина пароля.
	MinLength = 8
	// MaxLength bcrypt игнорирует все, что длиннее 72 байт.
	MaxLength = 72
)

var (
	// ErrTooShort пароль короче MinLength.
	ErrTooShort = fmt.Errorf("password must contain at least %d characters", MinLength)
	// ErrTooLong пароль длиннее MaxLength байт.
	ErrTooLong = fmt.Errorf("password must not exceed %d bytes", MaxLength)
	// ErrNumeric пароль состоит только из цифр.
	ErrNumeric = errors.New("password can't be entirely numeric")
	// ErrMismatch пароль не соответствует хешу.
	ErrMismatch = errors.New("password does not match")
)

// Validate проверяет пароль перед регистрацией.
func Validate(password string) error {
	if len([]rune(password)) < MinLength {
		return ErrTooShort
	}
	if len(password) > MaxLength {
		return ErrTooLong
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return ErrNumeric
	}
	return nil
}

// Hash возвращает bcrypt-хеш пароля.
func Hash(password string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сравнивает bcrypt-хеш с введенным паролем.
// Несовпадение возвращается как ErrMismatch, остальные ошибки bcrypt оборачиваются.
func Compare(hash, password string) error {
	const op = "password.Compare"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
