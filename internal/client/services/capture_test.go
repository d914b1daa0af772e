package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
)

// fakeDevice feeds pre-scripted chunks and closes the stream on release.
type fakeDevice struct {
	chunks     [][]float32
	acquireErr error
	released   bool
}

func (d *fakeDevice) Acquire(ctx context.Context, format audio.Format) (<-chan []float32, func(), error) {
	if d.acquireErr != nil {
		return nil, nil, d.acquireErr
	}
	ch := make(chan []float32, len(d.chunks))
	for _, c := range d.chunks {
		ch <- c
	}
	release := func() {
		d.released = true
		close(ch)
	}
	return ch, release, nil
}

func newController(t *testing.T, dev Device, rc *fakeRemote) (*CaptureController, *ConversationStore, *SessionManager, *repos) {
	t.Helper()
	r := setupRepos(t)
	sm := NewSessionManager(rc, r.users, r.session, testLogger())
	store := NewConversationStore(rc, r.conversations, sm, testLogger())
	return NewCaptureController(dev, rc, store, sm, testLogger()), store, sm, r
}

func TestStop_OnIdleController(t *testing.T) {
	c, _, _, _ := newController(t, &fakeDevice{}, &fakeRemote{})
	_, err := c.Stop(context.Background(), "c1")
	require.ErrorIs(t, err, common.ErrInvalidState)
}

func TestStart_DeviceUnavailable(t *testing.T) {
	dev := &fakeDevice{acquireErr: common.ErrDeviceUnavailable}
	c, _, _, _ := newController(t, dev, &fakeRemote{})

	err := c.Start(context.Background())
	require.ErrorIs(t, err, common.ErrDeviceUnavailable)
	require.Equal(t, StateIdle, c.State())
}

func TestStart_WhileCapturing(t *testing.T) {
	c, _, _, _ := newController(t, &fakeDevice{}, &fakeRemote{})
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.Equal(t, StateCapturing, c.State())
	require.ErrorIs(t, c.Start(ctx), common.ErrInvalidState)
}

func TestStop_OfflineSimulatedReply(t *testing.T) {
	rc := &fakeRemote{}
	dev := &fakeDevice{chunks: [][]float32{{0.1, -0.1}, {0.5}}}
	c, store, sm, r := newController(t, dev, rc)
	ctx := context.Background()

	loginOffline(t, sm, rc, "alice")
	conv, err := store.Create(ctx, "", "free_talk", "")
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx))
	reply, err := c.Stop(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, StateIdle, c.State())
	require.True(t, dev.released)
	require.Contains(t, OfflineReplies, reply.Reply)

	// No network I/O at all while offline.
	require.NotContains(t, rc.calls, "send")

	msgs, err := r.conversations.MessagesByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3) // welcome, user turn, assistant turn
	require.Equal(t, models.MessageUser, msgs[1].Kind)
	require.Equal(t, VoiceUserText, msgs[1].Text)
	require.Equal(t, models.MessageAssistant, msgs[2].Kind)
	require.Equal(t, reply.Reply, msgs[2].Text)
}

func TestStop_OnlineSendsEncodedAudio(t *testing.T) {
	rc := &fakeRemote{
		conversations: []models.Conversation{{ID: "remote-conv", Scenario: "travel"}},
		reply:         &models.ChatReply{Reply: "Nice trip!", Pronunciation: "clear", Feedback: "good"},
	}
	dev := &fakeDevice{chunks: [][]float32{{0.25, 0.5}}}
	c, store, sm, _ := newController(t, dev, rc)
	ctx := context.Background()

	loginOnline(t, sm, rc)
	_, err := store.List(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx))
	reply, err := c.Stop(ctx, "remote-conv")
	require.NoError(t, err)
	require.Equal(t, "Nice trip!", reply.Reply)
	require.Equal(t, "travel", rc.lastScenario)

	// Two frames of mono 16-bit data behind the 44-byte header.
	require.Len(t, rc.lastAudio, 44+4)
	require.NoError(t, audio.Validate(rc.lastAudio))
}

func TestStop_DeliveryFailureSurfaces(t *testing.T) {
	rc := &fakeRemote{sendErr: common.ErrRemoteUnavailable}
	dev := &fakeDevice{chunks: [][]float32{{0.1}}}
	c, _, sm, _ := newController(t, dev, rc)
	ctx := context.Background()

	loginOnline(t, sm, rc)
	require.NoError(t, c.Start(ctx))

	_, err := c.Stop(ctx, "remote-conv")
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
	require.Equal(t, StateIdle, c.State())
}

func TestStop_EmptyCaptureEncodesSilentContainer(t *testing.T) {
	rc := &fakeRemote{reply: &models.ChatReply{Reply: "ok"}}
	dev := &fakeDevice{}
	c, _, sm, _ := newController(t, dev, rc)
	ctx := context.Background()

	loginOnline(t, sm, rc)
	require.NoError(t, c.Start(ctx))

	_, err := c.Stop(ctx, "remote-conv")
	require.NoError(t, err)
	require.Len(t, rc.lastAudio, 44)
}

func TestStop_RequiresSession(t *testing.T) {
	c, _, _, _ := newController(t, &fakeDevice{chunks: [][]float32{{0.1}}}, &fakeRemote{})
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	_, err := c.Stop(ctx, "c1")
	require.ErrorIs(t, err, common.ErrInvalidState)
}
