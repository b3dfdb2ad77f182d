package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/list42/internal/model"
)

var (
	// ErrNotFound is returned for lists the caller cannot see and for
	// unknown items and share codes.
	ErrNotFound = errors.New("not found")
	// ErrInvalidItem is returned for items without a name.
	ErrInvalidItem = errors.New("item name is required")
)

// ListStore keeps grocery lists. Every user owns exactly one list, created on
// first use and addressed as "mine" by its owner. Other users reach it
// through share codes and see it under its real id.
type ListStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type listRow struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func scanListRow(scanner interface{ Scan(...any) error }) (*listRow, error) {
	var l listRow
	err := scanner.Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const listCols = `id, owner_id, name, created_at, updated_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var completed int
	var updatedAt time.Time
	err := scanner.Scan(&item.ID, &item.Name, &completed, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.Completed = completed != 0
	item.UpdatedAt = &updatedAt
	return &item, nil
}

const itemCols = `id, name, completed, updated_at`

// EnsureOwn returns the id of userID's own list, creating it if needed.
func (s *ListStore) EnsureOwn(userID string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM lists WHERE owner_id = ?`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("get own list: %w", err)
	}

	now := s.now()
	id = uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO lists (id, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO NOTHING`,
		id, userID, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert own list: %w", err)
	}
	if err := s.db.QueryRow(`SELECT id FROM lists WHERE owner_id = ?`, userID).Scan(&id); err != nil {
		return "", fmt.Errorf("get own list: %w", err)
	}
	return id, nil
}

// resolve maps the id a caller used to a real list id the caller may access.
func (s *ListStore) resolve(userID, listID string) (string, error) {
	if listID == "" || listID == model.DefaultListID {
		return s.EnsureOwn(userID)
	}
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM lists l
		 LEFT JOIN list_members m ON m.list_id = l.id AND m.user_id = ?
		 WHERE l.id = ? AND (l.owner_id = ? OR m.user_id IS NOT NULL)`,
		userID, listID, userID,
	).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("check list access: %w", err)
	}
	if n == 0 {
		return "", ErrNotFound
	}
	return listID, nil
}

// Lists returns the lists userID can see: the own list first as "mine",
// then shared lists by creation time.
func (s *ListStore) Lists(userID string) ([]model.ListSummary, error) {
	if _, err := s.EnsureOwn(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT `+prefixCols("l", listCols)+` FROM lists l
		 LEFT JOIN list_members m ON m.list_id = l.id AND m.user_id = ?
		 WHERE l.owner_id = ? OR m.user_id IS NOT NULL
		 ORDER BY l.owner_id = ? DESC, l.created_at ASC, l.id ASC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	lists := []model.ListSummary{}
	for rows.Next() {
		l, err := scanListRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, model.ListSummary{ID: viewID(userID, l), Name: l.Name})
	}
	return lists, rows.Err()
}

// Get returns the list with its items in insertion order.
func (s *ListStore) Get(userID, listID string) (*model.GroceryList, error) {
	id, err := s.resolve(userID, listID)
	if err != nil {
		return nil, err
	}
	return s.load(userID, id)
}

func (s *ListStore) load(userID, id string) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM lists WHERE id = ?`, id)
	l, err := scanListRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	rows, err := s.db.Query(`SELECT `+itemCols+` FROM items WHERE list_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []model.GroceryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	createdAt, updatedAt := l.CreatedAt, l.UpdatedAt
	return &model.GroceryList{
		ID:        viewID(userID, l),
		Name:      l.Name,
		Items:     items,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}, nil
}

// AddItem appends item to the list. An id the list already holds replaces
// that item in place, so a retried add is harmless. A missing id is
// generated.
func (s *ListStore) AddItem(userID, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, ErrInvalidItem
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	id, err := s.resolve(userID, listID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, err = s.db.Exec(
		`INSERT INTO items (list_id, id, name, completed, position, updated_at)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE list_id = ?), ?)
		 ON CONFLICT(list_id, id) DO UPDATE SET name = excluded.name, completed = excluded.completed, updated_at = excluded.updated_at`,
		id, item.ID, item.Name, boolInt(item.Completed), id, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := s.touch(id, now); err != nil {
		return nil, err
	}
	return s.load(userID, id)
}

// UpdateItem replaces the name and completed flag of an existing item.
func (s *ListStore) UpdateItem(userID, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, ErrInvalidItem
	}
	id, err := s.resolve(userID, listID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result, err := s.db.Exec(
		`UPDATE items SET name = ?, completed = ?, updated_at = ? WHERE list_id = ? AND id = ?`,
		item.Name, boolInt(item.Completed), now, id, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	if err := s.touch(id, now); err != nil {
		return nil, err
	}
	return s.load(userID, id)
}

// DeleteItem removes an item. Deleting an item that is already gone
// succeeds and returns the list unchanged.
func (s *ListStore) DeleteItem(userID, listID, itemID string) (*model.GroceryList, error) {
	id, err := s.resolve(userID, listID)
	if err != nil {
		return nil, err
	}
	result, err := s.db.Exec(`DELETE FROM items WHERE list_id = ? AND id = ?`, id, itemID)
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		if err := s.touch(id, s.now()); err != nil {
			return nil, err
		}
	}
	return s.load(userID, id)
}

// ShareCode returns the share code of userID's own list, creating one on
// first use.
func (s *ListStore) ShareCode(userID string) (string, error) {
	id, err := s.EnsureOwn(userID)
	if err != nil {
		return "", err
	}
	var code string
	err = s.db.QueryRow(`SELECT code FROM share_codes WHERE list_id = ?`, id).Scan(&code)
	if err == nil {
		return code, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("get share code: %w", err)
	}

	code, err = generateShareCode()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(`INSERT INTO share_codes (code, list_id) VALUES (?, ?) ON CONFLICT(list_id) DO NOTHING`, code, id)
	if err != nil {
		return "", fmt.Errorf("insert share code: %w", err)
	}
	if err := s.db.QueryRow(`SELECT code FROM share_codes WHERE list_id = ?`, id).Scan(&code); err != nil {
		return "", fmt.Errorf("get share code: %w", err)
	}
	return code, nil
}

// Redeem makes userID a member of the list behind code and returns it.
// Redeeming a code twice, or the code of one's own list, is allowed.
func (s *ListStore) Redeem(userID, code string) (*model.GroceryList, error) {
	var id, ownerID string
	err := s.db.QueryRow(
		`SELECT l.id, l.owner_id FROM share_codes c JOIN lists l ON l.id = c.list_id WHERE c.code = ?`,
		strings.TrimSpace(code),
	).Scan(&id, &ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get share code: %w", err)
	}

	if ownerID != userID {
		_, err = s.db.Exec(
			`INSERT INTO list_members (list_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			id, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert member: %w", err)
		}
	}
	return s.load(userID, id)
}

// Members returns the ids of every user who can see listID, owner first.
func (s *ListStore) Members(listID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT owner_id FROM lists WHERE id = ?
		 UNION ALL
		 SELECT user_id FROM list_members WHERE list_id = ?`,
		listID, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RealID maps the id userID used for a list to its stored id.
func (s *ListStore) RealID(userID, listID string) (string, error) {
	return s.resolve(userID, listID)
}

func (s *ListStore) touch(id string, now time.Time) error {
	if _, err := s.db.Exec(`UPDATE lists SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return nil
}

func viewID(userID string, l *listRow) string {
	if l.OwnerID == userID {
		return model.DefaultListID
	}
	return l.ID
}

func generateShareCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate share code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func prefixCols(alias, cols string) string {
	parts := strings.Split(cols, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
