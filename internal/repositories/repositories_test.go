package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-manager/internal/database/databasetest"
	"go-task-manager/internal/models"
	"go-task-manager/internal/repositories"
)

func createUser(t *testing.T, repo *repositories.UserRepository, name, email string) *models.User {
	t.Helper()
	hash, err := repositories.HashPassword("password123")
	require.NoError(t, err)
	u, err := repo.Create(context.Background(), &models.User{Name: name, Email: email, PasswordHash: hash})
	require.NoError(t, err)
	return u
}

func newTask(owner *models.User, title string, date models.Date) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		UserID:    owner.ID,
		Title:     title,
		TaskDate:  date,
		Priority:  models.PriorityMedium,
		Category:  models.CategoryPersonal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	repo := repositories.NewUserRepository(db)

	alice := createUser(t, repo, "Alice", "alice@example.com")
	bob := createUser(t, repo, "Bob", "bob@example.com")

	t.Run("Find by id and email", func(t *testing.T) {
		got, err := repo.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.NotEmpty(t, got.PasswordHash)

		got, err = repo.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)

		_, err = repo.FindByEmail(ctx, "BOB@example.com")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound, "emails are case-sensitive")

		_, err = repo.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, &models.User{Name: "Other", Email: "alice@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

		exists, err := repo.ExistsByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Search and count", func(t *testing.T) {
		users, err := repo.SearchByName(ctx, "ALI")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)

		users, err = repo.SearchByName(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, users, "wildcards in the needle are literal")

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Update and password", func(t *testing.T) {
		bob.Name = "Robert"
		updated, err := repo.Update(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, "Robert", updated.Name)

		bob.Email = "alice@example.com"
		_, err = repo.Update(ctx, bob)
		assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

		hash, err := repositories.HashPassword("newpassword")
		require.NoError(t, err)
		require.NoError(t, repo.UpdatePassword(ctx, alice.ID, hash))
		got, err := repo.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.NoError(t, repositories.VerifyPassword(got.PasswordHash, "newpassword"))
		assert.Error(t, repositories.VerifyPassword(got.PasswordHash, "password123"))

		assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, hash), repositories.ErrUserNotFound)
	})
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)

	alice := createUser(t, users, "Alice", "alice@example.com")
	bob := createUser(t, users, "Bob", "bob@example.com")

	d := func(day int) models.Date { return models.NewDate(2024, time.March, day) }

	created, err := tasks.Create(ctx, newTask(alice, "Write report", d(11)))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Alice", created.UserName)
	assert.Equal(t, d(11), created.TaskDate)
	assert.Nil(t, created.CompletedAt)

	second := newTask(alice, "100% done_ish", d(13))
	second.Completed = true
	second.Priority = models.PriorityHigh
	second.Category = models.CategoryWork
	completedAt := time.Now().UTC()
	second.CompletedAt = &completedAt
	_, err = tasks.Create(ctx, second)
	require.NoError(t, err)

	_, err = tasks.Create(ctx, newTask(alice, "Early", d(4)))
	require.NoError(t, err)
	_, err = tasks.Create(ctx, newTask(bob, "Bob's report", d(11)))
	require.NoError(t, err)

	t.Run("Owner scoped listing is ordered by date", func(t *testing.T) {
		list, err := tasks.FindByOwner(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Early", list[0].Title)
		for _, task := range list {
			assert.Equal(t, alice.ID, task.UserID)
		}
	})

	t.Run("Filters", func(t *testing.T) {
		list, err := tasks.FindByOwnerAndDate(ctx, alice.ID, d(11))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)

		list, err = tasks.FindByOwnerAndDateRange(ctx, alice.ID, d(11), d(13))
		require.NoError(t, err)
		assert.Len(t, list, 2, "range is inclusive on both ends")

		list, err = tasks.FindByOwnerAndCompleted(ctx, alice.ID, true)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.NotNil(t, list[0].CompletedAt)

		list, err = tasks.FindByOwnerAndPriority(ctx, alice.ID, models.PriorityHigh)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = tasks.FindByOwnerAndCategory(ctx, alice.ID, models.CategoryPersonal)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Title search escapes wildcards", func(t *testing.T) {
		list, err := tasks.FindByOwnerAndTitle(ctx, alice.ID, "REPORT")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Write report", list[0].Title)

		list, err = tasks.FindByOwnerAndTitle(ctx, alice.ID, "0% done_")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = tasks.FindByOwnerAndTitle(ctx, alice.ID, "_")
		require.NoError(t, err)
		assert.Len(t, list, 1, "underscore only matches itself")
	})

	t.Run("Counts", func(t *testing.T) {
		done, err := tasks.CountByOwnerAndCompleted(ctx, alice.ID, true)
		require.NoError(t, err)
		pending, err := tasks.CountByOwnerAndCompleted(ctx, alice.ID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), done)
		assert.Equal(t, int64(2), pending)
	})

	t.Run("Update and delete", func(t *testing.T) {
		created.Title = "Write final report"
		created.UpdatedAt = time.Now().UTC()
		updated, err := tasks.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, "Write final report", updated.Title)

		require.NoError(t, tasks.Delete(ctx, created.ID))
		_, err = tasks.FindByID(ctx, created.ID)
		assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
		assert.ErrorIs(t, tasks.Delete(ctx, created.ID), repositories.ErrTaskNotFound)

		missing := *created
		missing.ID = 9999
		_, err = tasks.Update(ctx, &missing)
		assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
	})

	t.Run("Deleting a user cascades to tasks", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, bob.ID))
		list, err := tasks.FindByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
