package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isLoggedIn() bool                            { return s.loggedIn }
func (s *stubExec) Register(ctx context.Context) error          { return s.record("register") }
func (s *stubExec) Login(ctx context.Context) error             { return s.record("login") }
func (s *stubExec) Logout(ctx context.Context) error            { return s.record("logout") }
func (s *stubExec) List(ctx context.Context) error              { return s.record("list") }
func (s *stubExec) Say(ctx context.Context) error               { return s.record("say") }
func (s *stubExec) Scenarios(ctx context.Context) error         { return s.record("scenarios") }
func (s *stubExec) New(ctx context.Context, arg string) error   { return s.record("new:" + arg) }
func (s *stubExec) Open(ctx context.Context, arg string) error  { return s.record("open:" + arg) }
func (s *stubExec) Delete(ctx context.Context, arg string) error {
	return s.record("delete:" + arg)
}

func runScript(t *testing.T, a execIface, script string) []string {
	t.Helper()

	var out []string
	orig := printlnFn
	printlnFn = func(args ...any) { out = append(out, fmt.Sprintln(args...)) }
	t.Cleanup(func() { printlnFn = orig })

	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), a, func() string { return "test" }, scanner)
	return out
}

func TestREPL_DispatchesCommands(t *testing.T) {
	s := &stubExec{loggedIn: true}
	runScript(t, s, "list\nnew travel\nopen 2\nsay\ndelete 1\nscenarios\nlogout\nquit\n")

	require.Equal(t, []string{
		"list", "new:travel", "open:2", "say", "delete:1", "scenarios", "logout",
	}, s.calls)
}

func TestREPL_UnknownCommand(t *testing.T) {
	s := &stubExec{}
	out := runScript(t, s, "frobnicate\nexit\n")

	joined := strings.Join(out, "")
	assert.Contains(t, joined, "Unknown command: frobnicate")
	assert.Empty(t, s.calls)
}

func TestREPL_HelpDependsOnLoginState(t *testing.T) {
	out := runScript(t, &stubExec{loggedIn: false}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, ""), "register, login")

	out = runScript(t, &stubExec{loggedIn: true}, "help\nexit\n")
	assert.Contains(t, strings.Join(out, ""), "say")
}

func TestREPL_ExitsOnEOF(t *testing.T) {
	s := &stubExec{}
	runScript(t, s, "")
	assert.Empty(t, s.calls)
}
