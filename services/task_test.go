package services

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-chat-service/models"
)

func newTaskApp(t *testing.T) (*fiber.App, *TaskService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewTaskService(db, NewConversationService(db))

	app := fiber.New()
	app.Post("/task/authorize", svc.Authorize)
	app.Post("/task/revoke", svc.Revoke)
	app.Get("/task/list", svc.List)
	return app, svc
}

func postTask(t *testing.T, app *fiber.App, path, address string, conversationID uint) int {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"userAddress":    address,
		"conversationId": conversationID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthorizeUpsertsSingleRow(t *testing.T) {
	app, svc := newTaskApp(t)
	id := createConversation(t, svc.DB, addrAlice, addrBob)

	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, id))
	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, id))

	var tasks []models.AuthorizedTask
	require.NoError(t, svc.DB.Find(&tasks).Error)
	require.Len(t, tasks, 1, "re-granting must not insert a duplicate")
	assert.True(t, tasks[0].Active)
}

func TestAuthorizeRejectsNonParticipant(t *testing.T) {
	app, svc := newTaskApp(t)
	id := createConversation(t, svc.DB, addrAlice, addrBob)

	assert.Equal(t, fiber.StatusForbidden, postTask(t, app, "/task/authorize", addrCarol, id))

	var count int64
	require.NoError(t, svc.DB.Model(&models.AuthorizedTask{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRevokeKeepsRowInactive(t *testing.T) {
	app, svc := newTaskApp(t)
	id := createConversation(t, svc.DB, addrAlice, addrBob)

	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, id))
	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/revoke", addrAlice, id))

	var task models.AuthorizedTask
	require.NoError(t, svc.DB.First(&task).Error)
	assert.False(t, task.Active)

	// Re-granting re-activates the same row.
	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, id))
	var tasks []models.AuthorizedTask
	require.NoError(t, svc.DB.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Active)
}

func TestListReturnsActiveOnly(t *testing.T) {
	app, svc := newTaskApp(t)
	first := createConversation(t, svc.DB, addrAlice, addrBob)
	second := createConversation(t, svc.DB, addrAlice, addrCarol)

	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, first))
	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/authorize", addrAlice, second))
	require.Equal(t, fiber.StatusOK, postTask(t, app, "/task/revoke", addrAlice, second))

	resp, err := app.Test(httptest.NewRequest("GET", "/task/list?userAddress="+addrAlice, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Tasks []models.AuthorizedTask `json:"tasks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Tasks, 1)
	assert.Equal(t, first, payload.Tasks[0].ConversationID)
}
