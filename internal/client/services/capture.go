package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/client/remote"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
)

// Device abstracts the capture hardware. Acquire starts a capture session and
// returns the chunk stream plus a release function; it fails with
// common.ErrDeviceUnavailable when the device cannot be grabbed. The device
// closes the channel after release.
type Device interface {
	Acquire(ctx context.Context, format audio.Format) (<-chan []float32, func(), error)
}

// CaptureState is the controller's externally visible state.
type CaptureState string

const (
	StateIdle      CaptureState = "idle"
	StateCapturing CaptureState = "capturing"
	StateEncoding  CaptureState = "encoding"
	StateError     CaptureState = "error"
)

// CaptureController drives one capture session at a time:
// Idle → Capturing → Encoding → Idle, with Error reachable from Capturing or
// Encoding and settling back to Idle once the failure has been surfaced.
//
// On Stop the buffer is finalized under its own critical section, encoded,
// and delivered: online via the remote backend, offline via a simulated
// reply. The user's pending turn is recorded before delivery and never
// discarded; a delivery failure turns the assistant slot into the fixed
// communication-failure message.
type CaptureController struct {
	device   Device
	remote   remote.Client
	store    *ConversationStore
	sessions *SessionManager
	logger   logging.Logger
	format   audio.Format

	mu      sync.Mutex
	state   CaptureState
	buffer  *audio.Buffer
	release func()
	done    chan struct{}
}

func NewCaptureController(dev Device, rc remote.Client, store *ConversationStore, sm *SessionManager, logger logging.Logger) *CaptureController {
	return &CaptureController{
		device:   dev,
		remote:   rc,
		store:    store,
		sessions: sm,
		logger:   logger,
		format:   audio.DefaultFormat,
		state:    StateIdle,
	}
}

// State returns the current controller state.
func (c *CaptureController) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the device and begins collecting chunks into a fresh buffer.
func (c *CaptureController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		return fmt.Errorf("%w: capture already in progress", common.ErrInvalidState)
	}

	chunks, release, err := c.device.Acquire(ctx, c.format)
	if err != nil {
		c.state = StateError
		c.mu.Unlock()
		c.settleError()
		return err
	}

	c.buffer = audio.NewBuffer(c.format)
	c.release = release
	c.done = make(chan struct{})
	c.state = StateCapturing
	buf, done := c.buffer, c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for chunk := range chunks {
			// A chunk racing the stop path lands on a finalized buffer
			// and is rejected there, never appended silently.
			if err := buf.Append(chunk); err != nil {
				return
			}
		}
	}()
	return nil
}

// Stop ends the capture, encodes the buffered samples, and delivers the turn
// to the given conversation. Only valid while capturing.
func (c *CaptureController) Stop(ctx context.Context, conversationID string) (*models.ChatReply, error) {
	c.mu.Lock()
	if c.state != StateCapturing {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: not capturing", common.ErrInvalidState)
	}
	c.state = StateEncoding
	buf, release, done := c.buffer, c.release, c.done
	c.buffer, c.release, c.done = nil, nil, nil
	c.mu.Unlock()

	release()
	<-done

	samples, err := buf.Finalize()
	if err != nil {
		c.fail()
		return nil, err
	}

	payload, err := audio.Encode(samples, buf.Format())
	if err != nil {
		c.fail()
		return nil, err
	}

	reply, err := c.deliver(ctx, conversationID, payload)
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	return reply, err
}

// deliver records the pending user turn, sends the payload (or simulates a
// reply offline), and appends the assistant turn. Failures surface as the
// fixed communication-failure assistant message; prior history is kept.
func (c *CaptureController) deliver(ctx context.Context, conversationID string, payload *audio.Payload) (*models.ChatReply, error) {
	sess := c.sessions.Current()
	if sess == nil {
		return nil, fmt.Errorf("%w: not logged in", common.ErrInvalidState)
	}

	userMsg := models.Message{
		ID:        uuid.NewString(),
		Kind:      models.MessageUser,
		Text:      PendingUserText,
		Timestamp: time.Now().UTC(),
	}
	if err := c.store.AppendMessage(ctx, conversationID, &userMsg); err != nil {
		return nil, err
	}

	conv, _ := findCached(c.store.Cached(), conversationID)
	scenario := models.DefaultScenario
	if conv != nil {
		scenario = conv.Scenario
	}

	var (
		reply *models.ChatReply
		err   error
	)
	if sess.Online() {
		reply, err = c.remote.SendAudio(ctx, sess.Token, conversationID, payload, scenario)
	} else {
		reply = simulatedReply()
	}

	userMsg.Text = VoiceUserText
	if uerr := c.store.UpdateMessage(ctx, &userMsg); uerr != nil {
		c.logger.Warn(ctx, "failed to settle user turn", "error", uerr)
	}

	assistant := models.Message{
		ID:        uuid.NewString(),
		Kind:      models.MessageAssistant,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		c.logger.Warn(ctx, "delivery failed", "conversation", conversationID, "error", err)
		assistant.Text = DeliveryFailedText
		if aerr := c.store.AppendMessage(ctx, conversationID, &assistant); aerr != nil {
			return nil, aerr
		}
		return nil, err
	}

	assistant.Text = reply.Reply
	assistant.Pronunciation = reply.Pronunciation
	assistant.Feedback = reply.Feedback
	if err := c.store.AppendMessage(ctx, conversationID, &assistant); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *CaptureController) fail() {
	c.mu.Lock()
	c.state = StateError
	c.mu.Unlock()
	c.settleError()
}

// settleError returns the controller to Idle; the caller has already
// surfaced the failure.
func (c *CaptureController) settleError() {
	c.mu.Lock()
	if c.state == StateError {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

func findCached(list []models.Conversation, id string) (*models.Conversation, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}
