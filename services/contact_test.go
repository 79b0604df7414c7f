package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-chat-service/middleware"
	"wallet-chat-service/models"
)

func TestLinkCreatesConversationAndEdges(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db)

	conversationID, err := svc.link(addrAlice, addrBob)
	require.NoError(t, err)
	require.NotZero(t, conversationID)

	var conversations int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&conversations).Error)
	assert.EqualValues(t, 1, conversations)

	var edges []models.Contact
	require.NoError(t, db.Order("owner ASC").Find(&edges).Error)
	require.Len(t, edges, 2)
	assert.Equal(t, addrAlice, edges[0].Owner)
	assert.Equal(t, addrBob, edges[0].ContactAddress)
	assert.Equal(t, addrBob, edges[1].Owner)
	assert.Equal(t, addrAlice, edges[1].ContactAddress)
	assert.Equal(t, conversationID, edges[0].ConversationID)
	assert.Equal(t, conversationID, edges[1].ConversationID)
}

func TestLinkIsIdempotentPerPair(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db)

	_, err := svc.link(addrAlice, addrBob)
	require.NoError(t, err)

	_, err = svc.link(addrAlice, addrBob)
	assert.True(t, errors.Is(err, ErrContactExists))

	var conversations, edges int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&conversations).Error)
	require.NoError(t, db.Model(&models.Contact{}).Count(&edges).Error)
	assert.EqualValues(t, 1, conversations, "second add must not create another conversation")
	assert.EqualValues(t, 2, edges, "second add must not create more edges")
}

func TestAddContactHandler(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db)

	app := fiber.New()
	app.Post("/contact/add", svc.Add)

	body, _ := json.Marshal(map[string]string{
		"raw_address":        "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"raw_contactAddress": addrBob,
	})

	req := httptest.NewRequest("POST", "/contact/add", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Mixed-case input must canonicalize to the same owner.
	var edge models.Contact
	require.NoError(t, db.Where("owner = ?", addrAlice).First(&edge).Error)

	// Duplicate add reports "already exists".
	req = httptest.NewRequest("POST", "/contact/add", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAddContactRejectsSelf(t *testing.T) {
	svc := NewContactService(newTestDB(t))

	app := fiber.New()
	app.Post("/contact/add", svc.Add)

	body, _ := json.Marshal(map[string]string{
		"raw_address":        addrAlice,
		"raw_contactAddress": addrAlice,
	})
	req := httptest.NewRequest("POST", "/contact/add", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListContactsJoinsUsernames(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db)

	require.NoError(t, db.Create(&models.User{Address: addrBob, Username: "bob"}).Error)
	conversationID, err := svc.link(addrAlice, addrBob)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/contact/list", svc.List)

	req := httptest.NewRequest("GET", "/contact/list?userAddress="+addrAlice, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Contacts []struct {
			Address        string `json:"address"`
			Username       string `json:"username"`
			ConversationID uint   `json:"conversation_id"`
		} `json:"contacts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Contacts, 1)
	assert.Equal(t, addrBob, payload.Contacts[0].Address)
	assert.Equal(t, "bob", payload.Contacts[0].Username)
	assert.Equal(t, conversationID, payload.Contacts[0].ConversationID)
}

func TestListContactsFromWalletHeader(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db)

	_, err := svc.link(addrAlice, addrBob)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(middleware.WalletContextMiddleware())
	app.Get("/contact/list", svc.List)

	// No query param: the canonicalized header address identifies the caller.
	req := httptest.NewRequest("GET", "/contact/list", nil)
	req.Header.Set("X-Wallet-Address", "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Contacts []struct {
			Address string `json:"address"`
		} `json:"contacts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Contacts, 1)
	assert.Equal(t, addrBob, payload.Contacts[0].Address)

	// Neither query nor header is still a bad request.
	resp, err = app.Test(httptest.NewRequest("GET", "/contact/list", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
