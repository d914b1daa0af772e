package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
)

func newStore(t *testing.T, rc *fakeRemote) (*ConversationStore, *SessionManager, *repos) {
	t.Helper()
	r := setupRepos(t)
	sm := NewSessionManager(rc, r.users, r.session, testLogger())
	return NewConversationStore(rc, r.conversations, sm, testLogger()), sm, r
}

func loginOffline(t *testing.T, sm *SessionManager, rc *fakeRemote, username string) {
	t.Helper()
	rc.loginErr = common.ErrRemoteUnavailable
	rc.registerErr = common.ErrRemoteUnavailable
	_, err := sm.Register(context.Background(), username, "password1", "password1")
	require.NoError(t, err)
}

func loginOnline(t *testing.T, sm *SessionManager, rc *fakeRemote) {
	t.Helper()
	rc.loginErr = nil
	rc.loginToken = "server-token"
	_, err := sm.Login(context.Background(), "alice", "password1")
	require.NoError(t, err)
}

func TestList_RequiresSession(t *testing.T) {
	store, _, _ := newStore(t, &fakeRemote{})
	_, err := store.List(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidState)
}

func TestList_OwnershipIsolation(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	_, err := store.Create(ctx, "Alice practice", "daily_life", "")
	require.NoError(t, err)
	require.NoError(t, sm.Logout(ctx))

	loginOffline(t, sm, rc, "bob")
	_, err = store.Create(ctx, "Bob practice", "travel", "")
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "bob", list[0].Owner)
	require.Equal(t, "Bob practice", list[0].Title)
}

func TestList_OnlineFailureDemotesAndRetriesLocallyOnce(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, r := newStore(t, rc)
	ctx := context.Background()

	// Seed a local conversation for alice while offline.
	loginOffline(t, sm, rc, "alice")
	_, err := store.Create(ctx, "Kept locally", "free_talk", "")
	require.NoError(t, err)
	require.NoError(t, sm.Logout(ctx))

	loginOnline(t, sm, rc)
	rc.listErr = common.ErrRemoteUnavailable

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Kept locally", list[0].Title)

	// Demotion is persisted, not just in-memory.
	require.Equal(t, models.ModeOffline, sm.Current().Mode)
	persisted, err := r.session.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, models.ModeOffline, persisted.Mode)

	// Exactly one remote list attempt was made.
	listCalls := 0
	for _, c := range rc.calls {
		if c == "list" {
			listCalls++
		}
	}
	require.Equal(t, 1, listCalls)
}

func TestCreate_Offline_SeedsWelcomeMessage(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, r := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	conv, err := store.Create(ctx, "", "travel", "")
	require.NoError(t, err)
	require.Equal(t, "Travel", conv.Title)
	require.Equal(t, "beginner", conv.Level)
	require.Equal(t, "alice", conv.Owner)

	msgs, err := r.conversations.MessagesByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, models.MessageAssistant, msgs[0].Kind)
	require.Equal(t, models.ScenarioByID("travel").Welcome, msgs[0].Text)
}

func TestDelete_OnlineFailureLeavesListUnchanged(t *testing.T) {
	rc := &fakeRemote{
		conversations: []models.Conversation{{ID: "c1", Title: "Remote one"}},
	}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOnline(t, sm, rc)
	_, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, store.Cached(), 1)

	rc.deleteErr = common.ErrRemoteUnavailable
	err = store.Delete(ctx, "c1")
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)

	// No optimistic removal.
	require.Len(t, store.Cached(), 1)
	require.Equal(t, "c1", store.Cached()[0].ID)
}

func TestDelete_OnlineRefreshesFromRemote(t *testing.T) {
	rc := &fakeRemote{
		conversations: []models.Conversation{{ID: "c1"}, {ID: "c2"}},
	}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOnline(t, sm, rc)
	_, err := store.List(ctx)
	require.NoError(t, err)

	rc.conversations = []models.Conversation{{ID: "c2"}}
	require.NoError(t, store.Delete(ctx, "c1"))
	require.Len(t, store.Cached(), 1)
	require.Equal(t, "c2", store.Cached()[0].ID)
}

func TestDelete_Offline(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	conv, err := store.Create(ctx, "To remove", "social", "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, conv.ID))
	require.Empty(t, store.Cached())

	err = store.Delete(ctx, conv.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAppendMessage_PersistedOnlyOffline(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, r := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	conv, err := store.Create(ctx, "", "free_talk", "")
	require.NoError(t, err)

	m := &models.Message{ID: "m-user", Kind: models.MessageUser, Text: VoiceUserText}
	require.NoError(t, store.AppendMessage(ctx, conv.ID, m))

	msgs, err := r.conversations.MessagesByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2) // welcome + appended

	require.NoError(t, sm.Logout(ctx))
	loginOnline(t, sm, rc)

	require.NoError(t, store.AppendMessage(ctx, "remote-conv", &models.Message{ID: "m2", Kind: models.MessageUser}))
	msgs, err = r.conversations.MessagesByConversation(ctx, "remote-conv")
	require.NoError(t, err)
	require.Empty(t, msgs) // online history is remote-authoritative
}

func TestHistory_OfflineUnknownConversation(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	_, err := store.History(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestHistory_OrderedOffline(t *testing.T) {
	rc := &fakeRemote{}
	store, sm, _ := newStore(t, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	conv, err := store.Create(ctx, "", "free_talk", "")
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, conv.ID, &models.Message{
		ID: "m1", Kind: models.MessageUser, Text: VoiceUserText,
	}))
	require.NoError(t, store.AppendMessage(ctx, conv.ID, &models.Message{
		ID: "m2", Kind: models.MessageAssistant, Text: "reply",
	}))

	msgs, err := store.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, models.MessageAssistant, msgs[0].Kind) // welcome first
	require.Equal(t, VoiceUserText, msgs[1].Text)
	require.Equal(t, "reply", msgs[2].Text)
}
