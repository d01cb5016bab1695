// Package testutil はAPIテスト用のセットアップとヘルパーを提供します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"go-task-manager/internal/config"
	"go-task-manager/internal/database/databasetest"
	"go-task-manager/internal/models"
	"go-task-manager/internal/repositories"
	"go-task-manager/internal/routes"
)

// TestJWTSecret はテスト用ルーターがトークンの署名に使う鍵です。
const TestJWTSecret = "test-secret"

// シードされるユーザー
const (
	NormalUserEmail    = "normal_user@example.com"
	NormalUserPassword = "password123"
	OtherUserEmail     = "other_user@example.com"
	OtherUserPassword  = "password456"
)

// TestJWTConfig はテスト用のトークン設定です。
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: []byte(TestJWTSecret), Expiration: time.Hour}
}

// SetupTestDB はインメモリのデータベースとルーターを用意し、テストユーザーを投入します。
func SetupTestDB(t *testing.T) (*sqlx.DB, *gin.Engine, *repositories.TaskRepository, *repositories.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := databasetest.New(t)
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	CreateTestUser(t, userRepo, "Normal User", NormalUserEmail, NormalUserPassword)
	CreateTestUser(t, userRepo, "Other User", OtherUserEmail, OtherUserPassword)

	r := routes.SetupRouter(routes.Deps{
		DB:           db,
		JWT:          TestJWTConfig(),
		AllowOrigins: []string{"http://localhost:3000"},
	})
	return db, r, taskRepo, userRepo
}

// CreateTestUser はテストユーザーを作成します。
func CreateTestUser(t *testing.T, userRepo *repositories.UserRepository, name, email, password string) *models.User {
	t.Helper()
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	u, err := userRepo.Create(context.Background(), &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	require.NoError(t, err, "Failed to create test user %s", email)
	return u
}

// LoginAndGetToken はログインAPIを呼び出してトークンを取得します。
func LoginAndGetToken(t *testing.T, r *gin.Engine, email, password string) (string, error) {
	t.Helper()
	body, _ := json.Marshal(models.LoginRequest{Email: email, Password: password})
	req, _ := http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp models.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	return resp.Token, nil
}

// CreateTestTask はリポジトリに直接タスクを作成します。
func CreateTestTask(t *testing.T, taskRepo *repositories.TaskRepository, userID int64, title string, date models.Date, completed bool) *models.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &models.Task{
		UserID:    userID,
		Title:     title,
		TaskDate:  date,
		Completed: completed,
		Priority:  models.PriorityMedium,
		Category:  models.CategoryPersonal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if completed {
		task.CompletedAt = &now
	}
	created, err := taskRepo.Create(context.Background(), task)
	require.NoError(t, err, "Failed to create test task")
	return created
}

// DoJSON はJSONボディ付きのリクエストを送り、レスポンスを返します。token が空なら認証ヘッダーを付けません。
func DoJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, path, &body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
