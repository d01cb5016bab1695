// Package services はアプリケーションのビジネスロジックを提供します。
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied は他人のリソースを変更しようとした場合のエラーです。
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidCredentials はメールアドレスかパスワードが誤っている場合のエラーです。
	// どちらが誤っているかは区別しません。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError は入力値の検証エラーです。Message はそのままクライアントに返します。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError は err が ValidationError を含むかを返します。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
