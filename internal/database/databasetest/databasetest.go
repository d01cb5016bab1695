// Package databasetest はテスト用のインメモリデータベースを提供します。
package databasetest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"go-task-manager/internal/config"
	"go-task-manager/internal/database"
)

// New はスキーマ作成済みのインメモリ sqlite を開きます。テスト終了時に閉じられます。
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.InitDB(ctx, config.DBConfig{Driver: "sqlite3", Path: ":memory:"})
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db), "Failed to migrate test database")
	return db
}
