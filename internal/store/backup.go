package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harrison/baseline/internal/filelock"
	"github.com/harrison/baseline/internal/models"
)

// backupVersion is the envelope format version. Bump only when the envelope
// shape changes in a way old restores cannot read.
const backupVersion = 1

// Backup is the portable JSON envelope for backup and restore. Restore
// re-upserts every record by id, so restoring over a live database merges
// rather than duplicates.
type Backup struct {
	Version    int               `json:"version"`
	ExportDate time.Time         `json:"exportDate"`
	Clients    []*models.Client  `json:"clients"`
	Sessions   []*models.Session `json:"sessions"`
}

// CreateBackup collects every client and session into an envelope.
func (s *Store) CreateBackup(ctx context.Context) (*Backup, error) {
	clients, err := s.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect clients: %w", err)
	}
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect sessions: %w", err)
	}
	return &Backup{
		Version:    backupVersion,
		ExportDate: time.Now().UTC(),
		Clients:    clients,
		Sessions:   sessions,
	}, nil
}

// WriteBackupFile serializes a backup envelope to path atomically, so a
// crash mid-write cannot leave a truncated backup behind.
func WriteBackupFile(path string, backup *Backup) error {
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("write backup %s: %w", path, err)
	}
	return nil
}

// RestoreBackup re-upserts every record from the envelope. Records already
// present are overwritten by id; records not in the envelope are untouched.
func (s *Store) RestoreBackup(ctx context.Context, backup *Backup) error {
	if backup.Version > backupVersion {
		return fmt.Errorf("backup version %d is newer than supported version %d", backup.Version, backupVersion)
	}
	for _, client := range backup.Clients {
		if err := s.PutClient(ctx, client); err != nil {
			return fmt.Errorf("restore client %s: %w", client.ID, err)
		}
	}
	for _, sess := range backup.Sessions {
		if err := s.PutSession(ctx, sess); err != nil {
			return fmt.Errorf("restore session %s: %w", sess.ID, err)
		}
	}
	return nil
}

// ReadBackupFile parses a backup envelope from disk.
func ReadBackupFile(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", path, err)
	}
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", path, err)
	}
	return &backup, nil
}
