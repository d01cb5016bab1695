package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority はタスクの優先度です。
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid は定義済みの優先度かどうかを返します。
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority は大文字小文字を区別せずに優先度を解析します。
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q (allowed: LOW, MEDIUM, HIGH, URGENT)", s)
	}
	return p, nil
}

// Category はタスクのカテゴリです。
type Category string

const (
	CategoryPersonal Category = "PERSONAL"
	CategoryWork     Category = "WORK"
	CategoryStudy    Category = "STUDY"
	CategoryHealth   Category = "HEALTH"
	CategoryFinance  Category = "FINANCE"
	CategoryOther    Category = "OTHER"
)

// Valid は定義済みのカテゴリかどうかを返します。
func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategoryWork, CategoryStudy, CategoryHealth, CategoryFinance, CategoryOther:
		return true
	}
	return false
}

// ParseCategory は大文字小文字を区別せずにカテゴリを解析します。
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid category %q (allowed: PERSONAL, WORK, STUDY, HEALTH, FINANCE, OTHER)", s)
	}
	return c, nil
}

// Task はタスクのデータベース構造体を表します。
// UserID と UserName は所有者の参照で、作成後は変更されません。
type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	TaskDate    Date       `json:"task_date" db:"task_date"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    Priority   `json:"priority" db:"priority"`
	Category    Category   `json:"category" db:"category"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	UserID      int64      `json:"user_id" db:"user_id"`
	UserName    string     `json:"user_name" db:"user_name"`
}

// TaskRequest はタスク作成・更新リクエストです。
// 省略を判別するため任意項目はポインタにしています。所有者はリクエストから受け取りません。
type TaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TaskDate    *Date     `json:"task_date"`
	Completed   *bool     `json:"completed"`
	Priority    *Priority `json:"priority"`
	Category    *Category `json:"category"`
}

// ToggleRequest は完了状態の切り替えリクエストです。
type ToggleRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// TaskStats はユーザーごとのタスク集計です。Total は保存せず Completed + Pending で求めます。
type TaskStats struct {
	Total     int64 `json:"total_tasks"`
	Completed int64 `json:"completed_tasks"`
	Pending   int64 `json:"pending_tasks"`
}
