// Package prefs keeps the client's small per-device settings: the session
// token and, per user, the selected list.
package prefs

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/list42/internal/model"
)

const sessionTokenKey = "session_token"

type Store struct {
	db *sql.DB
}

// New wraps a database opened with database.OpenLocal.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, or "" when it is unset.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}

// SelectedList returns the list userID last selected, defaulting to their
// own list.
func (s *Store) SelectedList(userID string) (string, error) {
	id, err := s.Get(selectedListKey(userID))
	if err != nil {
		return model.DefaultListID, err
	}
	if id == "" {
		return model.DefaultListID, nil
	}
	return id, nil
}

func (s *Store) SetSelectedList(userID, listID string) error {
	if listID == "" {
		listID = model.DefaultListID
	}
	return s.Set(selectedListKey(userID), listID)
}

func (s *Store) SessionToken() (string, error) {
	return s.Get(sessionTokenKey)
}

func (s *Store) SetSessionToken(token string) error {
	return s.Set(sessionTokenKey, token)
}

func (s *Store) ClearSessionToken() error {
	return s.Delete(sessionTokenKey)
}

func selectedListKey(userID string) string {
	return userID + ".selectedListId"
}
