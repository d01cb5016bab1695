package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"go-task-manager/internal/models"
)

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrUserNotFound   = errors.New("user not found")
)

const userColumns = "id, name, email, password_hash, created_at, updated_at"

// UserRepository はユーザーの永続化を行います。
type UserRepository struct {
	DB *sqlx.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create は新しいユーザーをデータベースに挿入します。PasswordHash は呼び出し側でハッシュ化済みであること。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	query := "INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	result, err := r.DB.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("could not insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.DB.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを検索します。大文字小文字は区別します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.DB.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// ExistsByEmail はメールアドレスが登録済みかを返します。
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM users WHERE email = ?", email); err != nil {
		return false, fmt.Errorf("could not query user: %w", err)
	}
	return n > 0, nil
}

// Update は名前とメールアドレスを更新します。
func (r *UserRepository) Update(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?", u.Name, u.Email, now, u.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("could not update user: %w", err)
	}
	if err := expectOneRow(res, ErrUserNotFound); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, u.ID)
}

// UpdatePassword はユーザーのパスワードハッシュを更新します。
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, newHash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", newHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	return expectOneRow(res, ErrUserNotFound)
}

// Delete はユーザーを削除します。タスクは外部キーによりカスケード削除されます。
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete user: %w", err)
	}
	return expectOneRow(res, ErrUserNotFound)
}

// FindAll はすべてのユーザーを取得します。
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := r.DB.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("could not query users: %w", err)
	}
	return users, nil
}

// SearchByName は名前の部分一致 (大文字小文字を区別しない) でユーザーを検索します。
func (r *UserRepository) SearchByName(ctx context.Context, name string) ([]*models.User, error) {
	users := []*models.User{}
	query := "SELECT " + userColumns + " FROM users WHERE LOWER(name) LIKE ? ESCAPE '!' ORDER BY id"
	if err := r.DB.SelectContext(ctx, &users, query, containsPattern(name)); err != nil {
		return nil, fmt.Errorf("could not query users: %w", err)
	}
	return users, nil
}

// Count は登録ユーザー数を返します。
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("could not count users: %w", err)
	}
	return n, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
