package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-manager/internal/models"
	"go-task-manager/testutil"
)

func decodeTask(t *testing.T, body []byte) models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, json.Unmarshal(body, &task), "Response should be a valid JSON task object")
	return task
}

func decodeTasks(t *testing.T, body []byte) []models.Task {
	t.Helper()
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(body, &tasks), "Response should be a valid JSON array")
	return tasks
}

func TestCreateTask_Success(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, gin.H{
		"title":     "Test Task",
		"task_date": "2024-03-14",
		"priority":  "HIGH",
		"user_id":   2, // 無視される
	})

	assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP Status Code 201 Created")
	task := decodeTask(t, w.Body.Bytes())
	assert.NotZero(t, task.ID, "Expected a non-zero Task ID")
	assert.Equal(t, "Test Task", task.Title)
	assert.Equal(t, "2024-03-14", task.TaskDate.String())
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, models.CategoryPersonal, task.Category)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, int64(1), task.UserID, "Owner must be the authenticated caller")
	assert.Equal(t, "Normal User", task.UserName)
	assert.NotZero(t, task.CreatedAt)
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"Missing task_date", gin.H{"title": "No date"}, "task_date is required"},
		{"Empty title", gin.H{"title": "", "task_date": "2024-03-14"}, "title is required"},
		{"Unknown priority", gin.H{"title": "x", "task_date": "2024-03-14", "priority": "SOMEDAY"}, "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}

	t.Run("Malformed date", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, gin.H{"title": "x", "task_date": "14/03/2024"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request payload")
	})
}

func TestGetTasks_Unauthorized(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskOwnership(t *testing.T) {
	db, r, taskRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	normalToken, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	otherToken, err := testutil.LoginAndGetToken(t, r, testutil.OtherUserEmail, testutil.OtherUserPassword)
	require.NoError(t, err)

	date := models.NewDate(2024, time.March, 14)
	normalTask := testutil.CreateTestTask(t, taskRepo, 1, "Normal user's task", date, false)
	testutil.CreateTestTask(t, taskRepo, 2, "Other user's task", date, false)
	path := fmt.Sprintf("/api/tasks/%d", normalTask.ID)

	t.Run("Normal user can get their own tasks", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", normalToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		tasks := decodeTasks(t, w.Body.Bytes())
		require.Len(t, tasks, 1)
		assert.Equal(t, "Normal user's task", tasks[0].Title)
	})

	t.Run("Other user gets 404 on read", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, path, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Task not found")
	})

	t.Run("Other user gets 403 on writes", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, path, otherToken, gin.H{"title": "hijack", "task_date": "2024-03-14"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = testutil.DoJSON(t, r, http.MethodPatch, path+"/toggle", otherToken, gin.H{"completed": true})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = testutil.DoJSON(t, r, http.MethodDelete, path, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Access denied")
	})

	t.Run("Absent task is 404 for writes", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodDelete, "/api/tasks/9999", normalToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid ID format", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/abc", normalToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Owner can update toggle and delete", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, path, normalToken, gin.H{
			"title": "Updated", "task_date": "2024-03-15", "category": "WORK",
		})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decodeTask(t, w.Body.Bytes())
		assert.Equal(t, "Updated", updated.Title)
		assert.Equal(t, models.CategoryWork, updated.Category)

		w = testutil.DoJSON(t, r, http.MethodPatch, path+"/toggle", normalToken, gin.H{"completed": true})
		require.Equal(t, http.StatusOK, w.Code)
		toggled := decodeTask(t, w.Body.Bytes())
		assert.True(t, toggled.Completed)
		assert.NotNil(t, toggled.CompletedAt)

		w = testutil.DoJSON(t, r, http.MethodPatch, path+"/toggle", normalToken, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code, "completed is required")

		w = testutil.DoJSON(t, r, http.MethodDelete, path, normalToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Task deleted successfully")
	})
}

func TestTaskFilters(t *testing.T) {
	db, r, taskRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	testutil.CreateTestTask(t, taskRepo, 1, "Monday standup", models.NewDate(2024, time.March, 11), true)
	testutil.CreateTestTask(t, taskRepo, 1, "Weekend groceries", models.NewDate(2024, time.March, 16), false)
	testutil.CreateTestTask(t, taskRepo, 1, "April fools", models.NewDate(2024, time.April, 1), false)
	testutil.CreateTestTask(t, taskRepo, 2, "Other standup", models.NewDate(2024, time.March, 11), false)

	tests := []struct {
		name   string
		path   string
		titles []string
	}{
		{"By date", "/api/tasks/date/2024-03-11", []string{"Monday standup"}},
		{"By period", "/api/tasks/period?startDate=2024-03-10&endDate=2024-03-31", []string{"Monday standup", "Weekend groceries"}},
		{"By status", "/api/tasks/status/false", []string{"Weekend groceries", "April fools"}},
		{"By priority", "/api/tasks/priority/medium", []string{"Monday standup", "Weekend groceries", "April fools"}},
		{"By category", "/api/tasks/category/WORK", []string{}},
		{"Search", "/api/tasks/search?title=STANDUP", []string{"Monday standup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoJSON(t, r, http.MethodGet, tt.path, token, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			titles := []string{}
			for _, task := range decodeTasks(t, w.Body.Bytes()) {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}

	badRequests := []string{
		"/api/tasks/date/yesterday",
		"/api/tasks/period?startDate=2024-03-31&endDate=2024-03-01",
		"/api/tasks/period?startDate=2024-03-01",
		"/api/tasks/status/maybe",
		"/api/tasks/priority/SOMEDAY",
		"/api/tasks/category/HOBBY",
		"/api/tasks/search",
	}
	for _, path := range badRequests {
		w := testutil.DoJSON(t, r, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	t.Run("Stats", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/stats", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var stats models.TaskStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, models.TaskStats{Total: 3, Completed: 1, Pending: 2}, stats)
	})
}

// 登録から削除拒否までの一連の流れ
func TestTaskLifecycleScenario(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	register := gin.H{
		"name":             "Scenario User",
		"email":            "scenario@example.com",
		"password":         "secret123",
		"confirm_password": "secret123",
	}
	w := testutil.DoJSON(t, r, http.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)
	token := auth.Token

	w = testutil.DoJSON(t, r, http.MethodPost, "/api/auth/register", "", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email already in use")

	w = testutil.DoJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "scenario@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, gin.H{"title": "No date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := models.DateOf(time.Now()).String()
	w = testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, gin.H{"title": "Today", "task_date": today})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decodeTask(t, w.Body.Bytes())

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/week", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	week := decodeTasks(t, w.Body.Bytes())
	require.Len(t, week, 1)
	assert.Equal(t, task.ID, week[0].ID)

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/month", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTasks(t, w.Body.Bytes()), 1)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	w = testutil.DoJSON(t, r, http.MethodPatch, path+"/toggle", token, gin.H{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)

	otherToken, err := testutil.LoginAndGetToken(t, r, testutil.OtherUserEmail, testutil.OtherUserPassword)
	require.NoError(t, err)
	w = testutil.DoJSON(t, r, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
