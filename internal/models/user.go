package models

import "time"

// User はユーザーのデータベース構造体を表します。
// PasswordHash はどのレスポンスにも含めません。
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest はユーザー登録リクエストの構造体です。
// 長さや一致のチェックはサービス層で行い、具体的な理由を返します。
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LoginRequest はユーザーログインリクエストの構造体です。
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse は登録・ログイン成功時のレスポンスです。
type AuthResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresIn int64  `json:"expires_in"` // 秒
	User      *User  `json:"user"`
	Message   string `json:"message"`
}

// UserUpdateRequest は自分のプロフィール更新リクエストです。
type UserUpdateRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// PasswordUpdateRequest はパスワード変更リクエストです。
type PasswordUpdateRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// TokenClaims は検証済みトークンから取り出したクレームです。
type TokenClaims struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"` // sub
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
