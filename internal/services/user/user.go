// Package user содержит бизнес-логику аккаунтов: регистрацию, вход,
// профиль и обновление access токена.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/lib/jwt"
	"github.com/magabrotheeeer/bookflix/internal/lib/password"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
	"github.com/magabrotheeeer/bookflix/internal/models"
	"github.com/magabrotheeeer/bookflix/internal/storage"
)

const birthdateLayout = "2006-01-02"

var (
	// ErrInvalidCredentials неверный логин или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken refresh токен невалиден или просрочен.
	ErrInvalidToken = errors.New("token is invalid or expired")
)

// ValidationError ошибка данных, пришедших от клиента.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Repository методы хранилища пользователей.
type Repository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	UserExists(ctx context.Context, username, email string) (bool, bool, error)
}

// Subscriptions выдает бесплатный тариф новым пользователям.
type Subscriptions interface {
	ActivateDefault(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Service отвечает за регистрацию, вход и профиль пользователя.
type Service struct {
	repo     Repository
	subs     Subscriptions
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создает сервис пользователей.
func New(repo Repository, subs Subscriptions, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		subs:     subs,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает пользователя, выдает бесплатный тариф и пару токенов.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "user.Register"

	if err := password.Validate(req.Password); err != nil {
		return nil, &ValidationError{Field: "password", Message: err.Error()}
	}
	birthdate, err := parseBirthdate(req.Birthdate)
	if err != nil {
		return nil, err
	}

	usernameTaken, emailTaken, err := s.repo.UserExists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if usernameTaken {
		return nil, &ValidationError{Field: "username", Message: "A user with this username already exists."}
	}
	if emailTaken {
		return nil, &ValidationError{Field: "email", Message: "A user with this email already exists."}
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.repo.RegisterUser(ctx, models.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Birthdate:    birthdate,
		Role:         models.RoleUser,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, &ValidationError{Field: "username", Message: "A user with this username or email already exists."}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.subs.ActivateDefault(ctx, uid); err != nil {
		s.log.Warn("failed to activate default tier", sl.Err(err), slog.String("user_uid", uid))
	}

	u, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.authResult(u, op)
}

// Login проверяет пароль и выдает пару токенов.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	const op = "user.Login"

	u, err := s.repo.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.Compare(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.authResult(u, op)
}

// Refresh выдает новый access токен по refresh токену.
func (s *Service) Refresh(ctx context.Context, refresh string) (*models.Tokens, error) {
	const op = "user.Refresh"

	claims, err := s.jwtMaker.ParseToken(refresh, jwt.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	u, err := s.repo.GetUser(ctx, claims.UserUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, err := s.jwtMaker.GenerateToken(u.UUID, u.Username, u.Role, jwt.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Tokens{Access: access}, nil
}

// Profile возвращает профиль пользователя.
func (s *Service) Profile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "user.Profile"

	u, err := s.repo.GetUser(ctx, userUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateProfile частично обновляет профиль: меняются только переданные поля.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "user.UpdateProfile"

	u, err := s.Profile(ctx, userUID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil && !strings.EqualFold(*upd.Email, u.Email) {
		_, emailTaken, err := s.repo.UserExists(ctx, "", *upd.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if emailTaken {
			return nil, &ValidationError{Field: "email", Message: "A user with this email already exists."}
		}
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.MiddleName != nil {
		u.MiddleName = emptyToNil(*upd.MiddleName)
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		u.Phone = emptyToNil(*upd.Phone)
	}
	if upd.Birthdate != nil {
		if u.Birthdate, err = parseBirthdate(upd.Birthdate); err != nil {
			return nil, err
		}
	}

	err = s.repo.UpdateUserProfile(ctx, u)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, &ValidationError{Field: "email", Message: "A user with this email already exists."}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Profile(ctx, userUID)
}

func (s *Service) authResult(u *models.User, op string) (*models.AuthResult, error) {
	access, err := s.jwtMaker.GenerateToken(u.UUID, u.Username, u.Role, jwt.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.jwtMaker.GenerateToken(u.UUID, u.Username, u.Role, jwt.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AuthResult{User: u, Tokens: models.Tokens{Access: access, Refresh: refresh}}, nil
}

// parseBirthdate пустая строка очищает дату.
func parseBirthdate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(birthdateLayout, *s)
	if err != nil {
		return nil, &ValidationError{Field: "birthdate", Message: "Date has wrong format. Use YYYY-MM-DD."}
	}
	if t.After(time.Now()) {
		return nil, &ValidationError{Field: "birthdate", Message: "Birthdate cannot be in the future."}
	}
	return &t, nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
