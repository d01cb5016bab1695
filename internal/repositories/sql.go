// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// isDuplicateKey は一意制約違反かどうかを判定します。
func isDuplicateKey(err error) bool {
	// MySQLの重複エントリーエラーコード1062をチェック
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return false
}

// likeEscape は LIKE ... ESCAPE '!' 用にワイルドカードをエスケープします。
var likeEscape = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern は大文字小文字を区別しない部分一致用のパターンを返します。
// 比較側は LOWER(column) LIKE ? ESCAPE '!' とすること。
func containsPattern(s string) string {
	return "%" + likeEscape.Replace(strings.ToLower(s)) + "%"
}
