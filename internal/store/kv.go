package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Slot keys. Each domain collection is stored whole under one key.
const (
	KeyMembers       = "kidpoints-members"
	KeyTasks         = "kidpoints-tasks"
	KeyRewards       = "kidpoints-rewards"
	KeyAchievements  = "kidpoints-achievements"
	KeySettings      = "kidpoints-settings"
	KeyCurrentMember = "kidpoints-current-member"

	KeyPushSubscriptions = "kidpoints-push-subscriptions"
	KeyPushVAPID         = "kidpoints-push-vapid"
)

// DataKeys are the slots wiped by a global data reset. Settings and push
// registrations survive.
var DataKeys = []string{
	KeyMembers,
	KeyTasks,
	KeyRewards,
	KeyAchievements,
	KeyCurrentMember,
}

// KV is a durable key-value store holding one JSON blob per slot.
type KV interface {
	// Get returns the blob stored under key. ok is false when the slot is empty.
	Get(key string) (value []byte, ok bool, err error)
	// Set overwrites the slot.
	Set(key string, value []byte) error
	// Delete removes the given slots. Missing keys are ignored.
	Delete(keys ...string) error
	// Keys lists every populated slot in key order.
	Keys() ([]string, error)
}

// SQLiteKV implements KV on the kv table.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`DELETE FROM kv WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.Exec(key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteKV) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
