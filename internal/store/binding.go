package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Binding maps a swipe direction to a plugin action.
type Binding struct {
	ID          string
	Direction   string
	PluginName  string
	ActionName  string
	Params      json.RawMessage
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultBindings returns the out-of-the-box action table:
// right/left switch browser tabs, up/down scroll the focused window.
func DefaultBindings() []Binding {
	return []Binding{
		{
			Direction:   "right",
			PluginName:  "keyboard",
			ActionName:  "shortcut",
			Params:      json.RawMessage(`{"key":"pagedown","modifiers":["ctrl"]}`),
			Description: "next tab",
			Enabled:     true,
		},
		{
			Direction:   "left",
			PluginName:  "keyboard",
			ActionName:  "shortcut",
			Params:      json.RawMessage(`{"key":"pageup","modifiers":["ctrl"]}`),
			Description: "previous tab",
			Enabled:     true,
		},
		{
			Direction:   "up",
			PluginName:  "scroll",
			ActionName:  "scroll-up",
			Params:      json.RawMessage(`{"amount":1100}`),
			Description: "scroll up",
			Enabled:     true,
		},
		{
			Direction:   "down",
			PluginName:  "scroll",
			ActionName:  "scroll-down",
			Params:      json.RawMessage(`{"amount":1100}`),
			Description: "scroll down",
			Enabled:     true,
		},
	}
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, direction, plugin_name, action_name, params, description, enabled, created_at, updated_at`

// Create inserts a new binding. An ID is generated when b.ID is empty.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Direction, b.PluginName, b.ActionName, string(paramsOrEmpty(b.Params)),
		b.Description, boolToInt(b.Enabled), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// GetByDirection retrieves the binding for a direction.
func (r *BindingRepository) GetByDirection(direction string) (*Binding, error) {
	row := r.db.QueryRow(
		`SELECT `+bindingColumns+` FROM bindings WHERE direction = ?`,
		direction,
	)

	b, err := scanBinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings in right, left, up, down order.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT ` + bindingColumns + ` FROM bindings
		 ORDER BY CASE direction
			WHEN 'right' THEN 0
			WHEN 'left' THEN 1
			WHEN 'up' THEN 2
			ELSE 3
		 END`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates the binding for b.Direction.
func (r *BindingRepository) Update(b *Binding) error {
	b.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE bindings SET plugin_name = ?, action_name = ?, params = ?, description = ?, enabled = ?, updated_at = ?
		 WHERE direction = ?`,
		b.PluginName, b.ActionName, string(paramsOrEmpty(b.Params)), b.Description,
		boolToInt(b.Enabled), b.UpdatedAt, b.Direction,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Upsert updates the binding for b.Direction, creating it if missing.
func (r *BindingRepository) Upsert(b *Binding) error {
	existing, err := r.GetByDirection(b.Direction)
	if errors.Is(err, ErrNotFound) {
		return r.Create(b)
	}
	if err != nil {
		return err
	}

	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	return r.Update(b)
}

// Delete removes the binding for a direction.
func (r *BindingRepository) Delete(direction string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE direction = ?`, direction)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SeedDefaults creates the DefaultBindings for any direction that has none.
// It returns how many bindings were created.
func (r *BindingRepository) SeedDefaults() (int, error) {
	created := 0
	for _, b := range DefaultBindings() {
		if _, err := r.GetByDirection(b.Direction); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return created, err
		}

		if err := r.Create(&b); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var params string
	var enabled int

	err := row.Scan(&b.ID, &b.Direction, &b.PluginName, &b.ActionName, &params,
		&b.Description, &enabled, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Params = json.RawMessage(params)
	b.Enabled = enabled != 0
	return b, nil
}

func paramsOrEmpty(p json.RawMessage) json.RawMessage {
	if len(p) == 0 {
		return json.RawMessage("{}")
	}
	return p
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
