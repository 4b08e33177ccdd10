// Package models содержит доменную модель пользователя сервиса,
// а также структуры запросов регистрации, входа и изменения профиля.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя.
// IsSubscribed и SubscriptionEndDate не хранятся в таблице users,
// а вычисляются при чтении по текущей активной подписке.
type User struct {
	UUID                string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	FirstName           string     `json:"first_name"`
	MiddleName          *string    `json:"middle_name"`
	LastName            string     `json:"last_name"`
	Phone               *string    `json:"phone"`
	Birthdate           *time.Time `json:"birthdate"`
	Role                string     `json:"role"`
	IsSubscribed        bool       `json:"is_subscribed"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date"`
	CreatedAt           time.Time  `json:"created_at"`
}

// RegisterRequest данные формы регистрации.
type RegisterRequest struct {
	Username   string  `json:"username" validate:"required,max=150"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required"`
	FirstName  string  `json:"first_name,omitempty" validate:"max=150"`
	MiddleName *string `json:"middle_name,omitempty" validate:"omitempty,max=150"`
	LastName   string  `json:"last_name,omitempty" validate:"max=150"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Birthdate  *string `json:"birthdate,omitempty" validate:"omitempty"` // YYYY-MM-DD
}

// LoginRequest данные для входа.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest запрос на обмен refresh токена.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ProfileUpdate частичное изменение профиля, nil означает "не менять".
type ProfileUpdate struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	MiddleName *string `json:"middle_name,omitempty" validate:"omitempty,max=150"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Birthdate  *string `json:"birthdate,omitempty" validate:"omitempty"`
}

// Tokens пара токенов, выдаваемая при регистрации и входе.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// AuthResult ответ регистрации и входа.
type AuthResult struct {
	User *User `json:"user"`
	Tokens
}
