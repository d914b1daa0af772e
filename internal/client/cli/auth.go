package cli

import (
	"context"
	"os"
)

// Register prompts for credentials and creates an account, online when the
// backend is reachable and offline otherwise.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Choose a password: ")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(os.Stdout, "Repeat the password: ")
	if err != nil {
		return err
	}

	s, err := a.sessions.Register(ctx, username, password, confirm)
	if err != nil {
		printlnFn("Registration failed:", err)
		return err
	}
	printlnFn("Registered and logged in as", s.Username, "("+string(s.Mode)+")")
	return nil
}

// Login prompts for credentials and authenticates, falling back to the local
// credential store when the backend is unreachable.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Password: ")
	if err != nil {
		return err
	}

	s, err := a.sessions.Login(ctx, username, password)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}
	printlnFn("Logged in as", s.Username, "("+string(s.Mode)+")")
	return nil
}

// Logout ends the session and drops the opened conversation.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err)
		return err
	}
	a.current = nil
	printlnFn("Logged out")
	return nil
}
