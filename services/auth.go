package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blog/config"
	"blog/db"
	"blog/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// AuthService - регистрация, проверка пароля и выпуск JWT
type AuthService struct {
	store *db.Store
	conf  config.AuthConfig
}

func NewAuthService(store *db.Store, conf config.AuthConfig) *AuthService {
	return &AuthService{store: store, conf: conf}
}

// HashPassword возвращает argon2id-хеш в формате salt$hash (hex)
func HashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func CheckPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(hash)), []byte(parts[1])) == 1
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || strings.TrimSpace(email) == "" {
		return nil, validation("username, email and password are required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.store.Atomically(ctx, func(tx *db.Store) error {
		exists, err := tx.Users.Count(ctx, db.Where("username = ?", username))
		if err != nil {
			return err
		}
		if exists > 0 {
			return validation("Username already registered")
		}
		return tx.Users.Append(ctx, user)
	}, s.store.Users.Name())
	if err != nil {
		return nil, err
	}

	log.Printf("DEBUG: user %s registered", username)
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users.First(ctx, db.Where("username = ?", username))
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	return user, nil
}

// Authenticate проверяет логин и пароль
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Users.First(ctx, db.Where("username = ?", username))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("Incorrect username or password: %w", ErrAuthFailed)
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("Incorrect username or password: %w", ErrAuthFailed)
	}
	return user, nil
}

// Login выпускает пару токенов и запоминает refresh-токен у пользователя
func (s *AuthService) Login(ctx context.Context, username, password string) (*Tokens, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	access, err := s.issue(user.Username, accessTokenType, s.conf.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(user.Username, refreshTokenType, s.conf.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	_, err = s.store.Users.UpdateWhere(ctx, db.Where("username = ?", user.Username), func(u *models.User) {
		u.RefreshToken = &refresh
	})
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh выпускает новый access-токен по действующему refresh-токену
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.parse(refreshToken, refreshTokenType)
	if err != nil {
		return nil, fmt.Errorf("Invalid refresh token: %w", ErrAuthFailed)
	}

	user, err := s.store.Users.First(ctx, db.Where("username = ?", claims.Subject))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("Invalid refresh token: %w", ErrAuthFailed)
	}
	if err != nil {
		return nil, err
	}
	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, fmt.Errorf("Invalid refresh token: %w", ErrAuthFailed)
	}

	access, err := s.issue(user.Username, accessTokenType, s.conf.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, TokenType: "bearer"}, nil
}

// CurrentIdentity разбирает access-токен и возвращает его владельца
func (s *AuthService) CurrentIdentity(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parse(token, accessTokenType)
	if err != nil {
		return nil, fmt.Errorf("Could not validate credentials: %w", ErrAuthFailed)
	}
	user, err := s.store.Users.First(ctx, db.Where("username = ?", claims.Subject))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("Could not validate credentials: %w", ErrAuthFailed)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(username, tokenType string, ttl time.Duration) (string, error) {
	if s.conf.SecretKey == "" {
		return "", errors.New("missing secret")
	}
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.conf.SecretKey))
}

func (s *AuthService) parse(token, tokenType string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.conf.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType || claims.Subject == "" {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
