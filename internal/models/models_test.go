package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var req TaskRequest
	err := json.Unmarshal([]byte(`{"title":"t","task_date":"2026-10-18"}`), &req)
	require.NoError(t, err)
	require.NotNil(t, req.TaskDate)
	assert.Equal(t, NewDate(2026, time.October, 18), *req.TaskDate)

	out, err := json.Marshal(Task{TaskDate: NewDate(2026, time.January, 5)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"task_date":"2026-01-05"`)
}

func TestDate_JSONRejectsBadFormat(t *testing.T) {
	var req TaskRequest
	err := json.Unmarshal([]byte(`{"task_date":"18/10/2026"}`), &req)
	assert.Error(t, err)
}

func TestDate_OmittedIsNil(t *testing.T) {
	var req TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t"}`), &req))
	assert.Nil(t, req.TaskDate)
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2026, time.March, 9)

	var d Date
	require.NoError(t, d.Scan(time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, want, d)

	require.NoError(t, d.Scan([]byte("2026-03-09")))
	assert.Equal(t, want, d)

	require.NoError(t, d.Scan("2026-03-09 00:00:00"))
	assert.Equal(t, want, d)

	assert.Error(t, d.Scan(nil))
	assert.Error(t, d.Scan(42))

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", v)
}

func TestParsePriorityAndCategory(t *testing.T) {
	p, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = ParsePriority("critical")
	assert.Error(t, err)

	c, err := ParseCategory(" Finance ")
	require.NoError(t, err)
	assert.Equal(t, CategoryFinance, c)

	_, err = ParseCategory("hobby")
	assert.Error(t, err)
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	out, err := json.Marshal(User{ID: 1, Name: "n", Email: "e@example.com", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-hash")
	assert.NotContains(t, string(out), "password")
}
