package services

import (
	"errors"
	"fmt"

	"blog/db"
)

// Ошибки сервисного слоя; транспорт переводит их в HTTP-статусы (404/403/401/400)
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrValidation       = errors.New("validation failed")
)

// notFound переводит db.ErrNotFound в ErrNotFound с пояснением, остальные ошибки оставляет как есть
func notFound(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func validation(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}

func denied(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrPermissionDenied)
}
