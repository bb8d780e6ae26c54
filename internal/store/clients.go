package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harrison/baseline/internal/models"
)

// PutClient upserts a client by id, behaviors included.
func (s *Store) PutClient(ctx context.Context, client *models.Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	behaviors, err := json.Marshal(client.Behaviors)
	if err != nil {
		return fmt.Errorf("marshal behaviors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO clients (id, name, dob, notes, behaviors, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name=excluded.name, dob=excluded.dob, notes=excluded.notes,
            behaviors=excluded.behaviors, updated_at=excluded.updated_at`,
		client.ID, client.Name, client.DOB, client.Notes, string(behaviors),
		client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put client %s: %w", client.ID, err)
	}
	return nil
}

// GetClient returns the client with the given id, or ErrNotFound.
func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, dob, notes, behaviors, created_at, updated_at
        FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, dob, notes, behaviors, created_at, updated_at
        FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// DeleteClient removes a client record. Sessions and goals referencing the
// client are left in place; they are owned records deleted separately.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var dob, notes sql.NullString
	var behaviors string
	err := row.Scan(&c.ID, &c.Name, &dob, &notes, &behaviors, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	c.DOB = dob.String
	c.Notes = notes.String
	if err := json.Unmarshal([]byte(behaviors), &c.Behaviors); err != nil {
		return nil, fmt.Errorf("unmarshal behaviors for client %s: %w", c.ID, err)
	}
	return &c, nil
}
