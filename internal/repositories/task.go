package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"go-task-manager/internal/models"
)

// ErrTaskNotFound はタスクが見つからない場合のエラーです。
var ErrTaskNotFound = errors.New("task not found")

// 所有者名を返すため users と結合する
const taskSelect = `SELECT t.id, t.title, t.description, t.task_date, t.completed, t.priority, t.category,
	t.created_at, t.updated_at, t.completed_at, t.user_id, u.name AS user_name
	FROM tasks t JOIN users u ON u.id = t.user_id`

const taskOrder = " ORDER BY t.task_date ASC, t.id ASC"

// TaskRepository はタスクの永続化を行います。
// 一覧系のクエリはすべて所有者IDで絞り込みます。
type TaskRepository struct {
	DB *sqlx.DB
}

// NewTaskRepository は新しいTaskRepositoryインスタンスを作成します。
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// Create は新しいタスクを挿入し、保存後の行を返します。タイムスタンプは呼び出し側で設定済みであること。
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := `INSERT INTO tasks
		(user_id, title, description, task_date, completed, priority, category, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.DB.ExecContext(ctx, query,
		t.UserID, t.Title, t.Description, t.TaskDate, t.Completed, t.Priority, t.Category,
		t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	return r.FindByID(ctx, id)
}

// FindByID は指定されたIDのタスクを取得します。所有者の確認は呼び出し側の責務です。
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := r.DB.GetContext(ctx, &t, taskSelect+" WHERE t.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	return &t, nil
}

// Update は変更可能な項目とタイムスタンプを保存します。所有者 (user_id) は更新しません。
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := `UPDATE tasks SET title = ?, description = ?, task_date = ?, completed = ?,
		priority = ?, category = ?, updated_at = ?, completed_at = ? WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, query,
		t.Title, t.Description, t.TaskDate, t.Completed, t.Priority, t.Category,
		t.UpdatedAt, t.CompletedAt, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}
	if err := expectOneRow(res, ErrTaskNotFound); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, t.ID)
}

// Delete は指定されたIDのタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}
	return expectOneRow(res, ErrTaskNotFound)
}

// FindByOwner は所有者のタスクを日付順に取得します。
func (r *TaskRepository) FindByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ?"+taskOrder, ownerID)
}

// FindByOwnerAndDate は指定日のタスクを取得します。
func (r *TaskRepository) FindByOwnerAndDate(ctx context.Context, ownerID int64, date models.Date) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ? AND t.task_date = ?"+taskOrder, ownerID, date)
}

// FindByOwnerAndDateRange は start から end まで (両端を含む) のタスクを取得します。
func (r *TaskRepository) FindByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end models.Date) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ? AND t.task_date BETWEEN ? AND ?"+taskOrder, ownerID, start, end)
}

// FindByOwnerAndCompleted は完了状態で絞り込みます。
func (r *TaskRepository) FindByOwnerAndCompleted(ctx context.Context, ownerID int64, completed bool) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ? AND t.completed = ?"+taskOrder, ownerID, completed)
}

// FindByOwnerAndPriority は優先度で絞り込みます。
func (r *TaskRepository) FindByOwnerAndPriority(ctx context.Context, ownerID int64, priority models.Priority) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ? AND t.priority = ?"+taskOrder, ownerID, priority)
}

// FindByOwnerAndCategory はカテゴリで絞り込みます。
func (r *TaskRepository) FindByOwnerAndCategory(ctx context.Context, ownerID int64, category models.Category) ([]*models.Task, error) {
	return r.selectTasks(ctx, taskSelect+" WHERE t.user_id = ? AND t.category = ?"+taskOrder, ownerID, category)
}

// FindByOwnerAndTitle はタイトルの部分一致 (大文字小文字を区別しない) で検索します。
func (r *TaskRepository) FindByOwnerAndTitle(ctx context.Context, ownerID int64, title string) ([]*models.Task, error) {
	query := taskSelect + " WHERE t.user_id = ? AND LOWER(t.title) LIKE ? ESCAPE '!'" + taskOrder
	return r.selectTasks(ctx, query, ownerID, containsPattern(title))
}

// CountByOwnerAndCompleted は完了状態ごとの件数を返します。
func (r *TaskRepository) CountByOwnerAndCompleted(ctx context.Context, ownerID int64, completed bool) (int64, error) {
	var n int64
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM tasks WHERE user_id = ? AND completed = ?", ownerID, completed)
	if err != nil {
		return 0, fmt.Errorf("could not count tasks: %w", err)
	}
	return n, nil
}

func (r *TaskRepository) selectTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	tasks := []*models.Task{}
	if err := r.DB.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	return tasks, nil
}
