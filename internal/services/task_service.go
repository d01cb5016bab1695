package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go-task-manager/internal/models"
	"go-task-manager/internal/repositories"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// TaskStore はタスクの永続化層です。repositories.TaskRepository が実装します。
type TaskStore interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	FindByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)
	FindByOwnerAndDate(ctx context.Context, ownerID int64, date models.Date) ([]*models.Task, error)
	FindByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end models.Date) ([]*models.Task, error)
	FindByOwnerAndCompleted(ctx context.Context, ownerID int64, completed bool) ([]*models.Task, error)
	FindByOwnerAndPriority(ctx context.Context, ownerID int64, priority models.Priority) ([]*models.Task, error)
	FindByOwnerAndCategory(ctx context.Context, ownerID int64, category models.Category) ([]*models.Task, error)
	FindByOwnerAndTitle(ctx context.Context, ownerID int64, title string) ([]*models.Task, error)
	CountByOwnerAndCompleted(ctx context.Context, ownerID int64, completed bool) (int64, error)
}

// OwnerLookup はタスクの所有者を解決します。
type OwnerLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// TaskService はタスク関連のビジネスロジックを扱います。
// 取得は所有者以外には存在しないものとして扱い、変更は所有者以外を拒否します。
type TaskService struct {
	tasks TaskStore
	users OwnerLookup
	now   func() time.Time
}

// NewTaskService は新しいTaskServiceを作成します。
func NewTaskService(tasks TaskStore, users OwnerLookup) *TaskService {
	return &TaskService{tasks: tasks, users: users, now: time.Now}
}

// ListTasks はユーザーのタスクを日付順に取得します。
func (s *TaskService) ListTasks(ctx context.Context, userID int64) ([]*models.Task, error) {
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwner(ctx, userID)
}

// ListByDate は指定日のタスクを取得します。
func (s *TaskService) ListByDate(ctx context.Context, userID int64, date models.Date) ([]*models.Task, error) {
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndDate(ctx, userID, date)
}

// ListByDateRange は start から end まで (両端を含む) のタスクを取得します。
func (s *TaskService) ListByDateRange(ctx context.Context, userID int64, start, end models.Date) ([]*models.Task, error) {
	if start.After(end.Time) {
		return nil, validationErrorf("startDate must not be after endDate")
	}
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndDateRange(ctx, userID, start, end)
}

// ListCurrentWeek は今日を含む週 (月曜から日曜) のタスクを取得します。
func (s *TaskService) ListCurrentWeek(ctx context.Context, userID int64) ([]*models.Task, error) {
	start, end := weekBounds(models.DateOf(s.now()))
	return s.ListByDateRange(ctx, userID, start, end)
}

// ListCurrentMonth は今月 (1日から末日) のタスクを取得します。
func (s *TaskService) ListCurrentMonth(ctx context.Context, userID int64) ([]*models.Task, error) {
	start, end := monthBounds(models.DateOf(s.now()))
	return s.ListByDateRange(ctx, userID, start, end)
}

// ListByStatus は完了状態で絞り込みます。
func (s *TaskService) ListByStatus(ctx context.Context, userID int64, completed bool) ([]*models.Task, error) {
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndCompleted(ctx, userID, completed)
}

// ListByPriority は優先度で絞り込みます。
func (s *TaskService) ListByPriority(ctx context.Context, userID int64, priority models.Priority) ([]*models.Task, error) {
	if !priority.Valid() {
		return nil, validationErrorf("invalid priority %q", priority)
	}
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndPriority(ctx, userID, priority)
}

// ListByCategory はカテゴリで絞り込みます。
func (s *TaskService) ListByCategory(ctx context.Context, userID int64, category models.Category) ([]*models.Task, error) {
	if !category.Valid() {
		return nil, validationErrorf("invalid category %q", category)
	}
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndCategory(ctx, userID, category)
}

// SearchByTitle はタイトルの部分一致で検索します。大文字小文字は区別しません。
func (s *TaskService) SearchByTitle(ctx context.Context, userID int64, title string) ([]*models.Task, error) {
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.FindByOwnerAndTitle(ctx, userID, title)
}

// GetTask は指定IDのタスクを取得します。他人のタスクは存在しないものとして扱います。
func (s *TaskService) GetTask(ctx context.Context, id, userID int64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, repositories.ErrTaskNotFound
	}
	return task, nil
}

// CreateTask は新しいタスクを作成します。所有者は常に呼び出し元のユーザーです。
func (s *TaskService) CreateTask(ctx context.Context, userID int64, req *models.TaskRequest) (*models.Task, error) {
	fields, err := validateTaskRequest(req)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &models.Task{
		UserID:    owner.ID,
		UserName:  owner.Name,
		CreatedAt: now,
	}
	fields.apply(task, now)
	return s.tasks.Create(ctx, task)
}

// UpdateTask はタスクの内容をリクエストの値で置き換えます。
func (s *TaskService) UpdateTask(ctx context.Context, id, userID int64, req *models.TaskRequest) (*models.Task, error) {
	fields, err := validateTaskRequest(req)
	if err != nil {
		return nil, err
	}
	task, err := s.ownedForWrite(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	fields.apply(task, s.now().UTC())
	return s.tasks.Update(ctx, task)
}

// ToggleCompletion は完了状態だけを変更します。
func (s *TaskService) ToggleCompletion(ctx context.Context, id, userID int64, completed bool) (*models.Task, error) {
	task, err := s.ownedForWrite(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task.UpdatedAt = now
	applyCompletion(task, completed, now)
	return s.tasks.Update(ctx, task)
}

// DeleteTask はタスクを削除します。
func (s *TaskService) DeleteTask(ctx context.Context, id, userID int64) error {
	if _, err := s.ownedForWrite(ctx, id, userID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// Stats は完了・未完了の件数を返します。
func (s *TaskService) Stats(ctx context.Context, userID int64) (*models.TaskStats, error) {
	if err := s.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}
	completed, err := s.tasks.CountByOwnerAndCompleted(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	pending, err := s.tasks.CountByOwnerAndCompleted(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return &models.TaskStats{
		Total:     completed + pending,
		Completed: completed,
		Pending:   pending,
	}, nil
}

func (s *TaskService) resolveOwner(ctx context.Context, userID int64) error {
	_, err := s.users.FindByID(ctx, userID)
	return err
}

// ownedForWrite は変更操作のためにタスクを取得します。
// 存在しなければ ErrTaskNotFound、他人のものなら ErrAccessDenied を返します。
func (s *TaskService) ownedForWrite(ctx context.Context, id, userID int64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrAccessDenied
	}
	return task, nil
}

// applyCompletion は完了状態を設定し、completed_at を規則に従って更新します。
// 完了済みのまま再度完了にしても completed_at は変わりません。
func applyCompletion(task *models.Task, completed bool, now time.Time) {
	task.Completed = completed
	switch {
	case completed && task.CompletedAt == nil:
		t := now
		task.CompletedAt = &t
	case !completed:
		task.CompletedAt = nil
	}
}

// taskFields は検証済みのリクエスト値です。省略された項目には既定値が入ります。
type taskFields struct {
	title       string
	description string
	taskDate    models.Date
	completed   bool
	priority    models.Priority
	category    models.Category
}

func (f taskFields) apply(task *models.Task, now time.Time) {
	task.Title = f.title
	task.Description = f.description
	task.TaskDate = f.taskDate
	task.Priority = f.priority
	task.Category = f.category
	task.UpdatedAt = now
	applyCompletion(task, f.completed, now)
}

func validateTaskRequest(req *models.TaskRequest) (taskFields, error) {
	if req == nil {
		return taskFields{}, validationErrorf("title is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return taskFields{}, validationErrorf("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return taskFields{}, validationErrorf("title must be between 1 and %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		return taskFields{}, validationErrorf("description must be at most %d characters", maxDescriptionLength)
	}
	if req.TaskDate == nil || req.TaskDate.IsZero() {
		return taskFields{}, validationErrorf("task_date is required")
	}

	f := taskFields{
		title:       title,
		description: req.Description,
		taskDate:    *req.TaskDate,
		priority:    models.PriorityMedium,
		category:    models.CategoryPersonal,
	}
	if req.Completed != nil {
		f.completed = *req.Completed
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return taskFields{}, validationErrorf("invalid priority %q", *req.Priority)
		}
		f.priority = *req.Priority
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return taskFields{}, validationErrorf("invalid category %q", *req.Category)
		}
		f.category = *req.Category
	}
	return f, nil
}

// weekBounds は day を含む週の月曜日と日曜日を返します。
func weekBounds(day models.Date) (models.Date, models.Date) {
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDays(-offset)
	return start, start.AddDays(6)
}

// monthBounds は day を含む月の初日と末日を返します。
func monthBounds(day models.Date) (models.Date, models.Date) {
	start := models.NewDate(day.Year(), day.Month(), 1)
	return start, models.Date{Time: start.AddDate(0, 1, -1)}
}
