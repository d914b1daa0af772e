package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/speakfluent/speakfluent/internal/client/models"
)

// List prints the user's conversations, newest first, numbered for use with
// `open` and `delete`.
func (a *App) List(ctx context.Context) error {
	list, err := a.store.List(ctx)
	if err != nil {
		printlnFn("List failed:", err)
		return err
	}
	if len(list) == 0 {
		printlnFn("No conversations yet. Start one with: new <scenario>")
		return nil
	}
	for i, c := range list {
		printlnFn(fmt.Sprintf("%3d. %s  [%s/%s]  %s",
			i+1, c.Title, c.Scenario, c.Level, c.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

// New creates a conversation for the given scenario and opens it.
func (a *App) New(ctx context.Context, scenarioID string) error {
	conv, err := a.store.Create(ctx, "", scenarioID, "")
	if err != nil {
		printlnFn("Create failed:", err)
		return err
	}
	a.current = conv
	printlnFn("Started:", conv.Title)
	for _, m := range conv.Messages {
		printMessage(m)
	}
	return nil
}

// Open selects conversation number n from the last listing and prints its
// history.
func (a *App) Open(ctx context.Context, arg string) error {
	conv, err := a.pick(arg)
	if err != nil {
		printlnFn(err)
		return err
	}

	history, err := a.store.History(ctx, conv.ID)
	if err != nil {
		printlnFn("History failed:", err)
		return err
	}
	a.current = conv
	printlnFn("Opened:", conv.Title)
	for _, m := range history {
		printMessage(m)
	}
	return nil
}

// Say records one spoken turn into the opened conversation: capture until
// Enter, then encode and deliver.
func (a *App) Say(ctx context.Context) error {
	if a.current == nil {
		printlnFn("Open a conversation first (open <n>)")
		return nil
	}

	if err := a.capture.Start(ctx); err != nil {
		printlnFn("Capture failed:", err)
		return err
	}
	if _, err := GetSimpleText(a.reader, "Recording... press Enter to stop", printWriter{}); err != nil {
		return err
	}

	reply, err := a.capture.Stop(ctx, a.current.ID)
	if err != nil {
		printlnFn("Turn failed:", err)
		return err
	}
	printlnFn("Tutor:", reply.Reply)
	if reply.Pronunciation != "" {
		printlnFn("  pronunciation:", reply.Pronunciation)
	}
	if reply.Feedback != "" {
		printlnFn("  feedback:", reply.Feedback)
	}
	return nil
}

// Delete removes conversation number n from the last listing.
func (a *App) Delete(ctx context.Context, arg string) error {
	conv, err := a.pick(arg)
	if err != nil {
		printlnFn(err)
		return err
	}

	if err := a.store.Delete(ctx, conv.ID); err != nil {
		printlnFn("Delete failed:", err)
		return err
	}
	if a.current != nil && a.current.ID == conv.ID {
		a.current = nil
	}
	printlnFn("Deleted:", conv.Title)
	return nil
}

// Scenarios prints the built-in practice catalog.
func (a *App) Scenarios(ctx context.Context) error {
	ids := make([]string, 0, len(models.Scenarios))
	for id := range models.Scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := models.Scenarios[id]
		printlnFn(fmt.Sprintf("%-12s %-10s %s", s.ID, s.Level, s.Name))
	}
	return nil
}

// pick resolves a 1-based index from the cached listing.
func (a *App) pick(arg string) (*models.Conversation, error) {
	cached := a.store.Cached()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(cached) {
		return nil, fmt.Errorf("expected a conversation number between 1 and %d (run `list` first)", len(cached))
	}
	return &cached[n-1], nil
}

func printMessage(m models.Message) {
	who := "You"
	if m.Kind == models.MessageAssistant {
		who = "Tutor"
	}
	printlnFn(fmt.Sprintf("%s: %s", who, m.Text))
}

// printWriter adapts printlnFn to io.Writer for the input helpers.
type printWriter struct{}

func (printWriter) Write(p []byte) (int, error) {
	fmt.Print(string(p))
	return len(p), nil
}
