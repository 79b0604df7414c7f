package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wallet-chat-service/models"
)

func TestIsParticipant(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	id := createConversation(t, db, addrAlice, addrBob)

	for _, addr := range []string{addrAlice, addrBob} {
		ok, err := svc.IsParticipant(id, addr)
		require.NoError(t, err)
		assert.True(t, ok, "participant %s must pass", addr)
	}

	ok, err := svc.IsParticipant(id, addrCarol)
	require.NoError(t, err)
	assert.False(t, ok, "third party must be denied")

	ok, err = svc.IsParticipant(99999, addrAlice)
	require.NoError(t, err)
	assert.False(t, ok, "unknown conversation must fail closed")
}

func seedMessages(t *testing.T, svc *ConversationService, conversationID uint, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		msg := &models.Message{
			ConversationID: conversationID,
			Sender:         addrAlice,
			Text:           fmt.Sprintf("msg-%d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, svc.SaveMessage(msg))
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	id := createConversation(t, db, addrAlice, addrBob)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, svc, id, 250, base)

	messages, err := svc.History(id, nil)
	require.NoError(t, err)
	require.Len(t, messages, HistoryLimit)

	// The window is the tail of the full ordered set, oldest first.
	assert.Equal(t, "msg-50", messages[0].Text)
	assert.Equal(t, "msg-249", messages[len(messages)-1].Text)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp),
			"history must be ordered oldest-to-newest")
	}
}

func TestHistoryLowerBound(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	id := createConversation(t, db, addrAlice, addrBob)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedMessages(t, svc, id, 10, base)

	since := base.Add(7 * time.Second)
	messages, err := svc.History(id, &since)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "msg-7", messages[0].Text)
}

func TestHistoryEmptyConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	id := createConversation(t, db, addrAlice, addrBob)
	messages, err := svc.History(id, nil)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSaveMessageAssignsSequence(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	first := createConversation(t, db, addrAlice, addrBob)
	second := createConversation(t, db, addrAlice, addrCarol)

	var seqs []uint64
	for i := 0; i < 3; i++ {
		msg := &models.Message{ConversationID: first, Sender: addrAlice, Text: "hi"}
		require.NoError(t, svc.SaveMessage(msg))
		seqs = append(seqs, msg.Seq)
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqs, "seq must be strictly increasing per conversation")

	other := &models.Message{ConversationID: second, Sender: addrAlice, Text: "hi"}
	require.NoError(t, svc.SaveMessage(other))
	assert.Equal(t, uint64(1), other.Seq, "sequences are per conversation")
}

func TestDuplicateSequenceIsRejected(t *testing.T) {
	db := newTestDB(t)
	id := createConversation(t, db, addrAlice, addrBob)

	// Two senders racing SaveMessage can compute the same max(seq); the
	// store must reject the second insert so the loser retries.
	require.NoError(t, db.Create(&models.Message{
		ConversationID: id, Sender: addrAlice, Text: "a", Seq: 1,
	}).Error)
	err := db.Create(&models.Message{
		ConversationID: id, Sender: addrBob, Text: "b", Seq: 1,
	}).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The same seq in another conversation is fine.
	second := createConversation(t, db, addrAlice, addrCarol)
	require.NoError(t, db.Create(&models.Message{
		ConversationID: second, Sender: addrAlice, Text: "c", Seq: 1,
	}).Error)
}
