package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dukerupert/kidpoints/internal/store"
)

const snapshotVersion = 1

// Snapshot is every KV slot at one point in time.
type Snapshot struct {
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"createdAt"`
	Slots     map[string]json.RawMessage `json:"slots"`
}

// TakeSnapshot copies every slot in kv. Slots that do not hold valid JSON are
// left out; they would be reset on the next load anyway.
func TakeSnapshot(kv store.KV, now time.Time) (*Snapshot, error) {
	keys, err := kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	snap := &Snapshot{Version: snapshotVersion, CreatedAt: now.UTC(), Slots: make(map[string]json.RawMessage, len(keys))}
	for _, key := range keys {
		data, ok, err := kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", key, err)
		}
		if !ok || !json.Valid(data) {
			continue
		}
		snap.Slots[key] = data
	}
	return snap, nil
}

// Apply replaces the contents of kv with the snapshot.
func (s *Snapshot) Apply(kv store.KV) error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	keys, err := kv.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	if err := kv.Delete(keys...); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	for key, data := range s.Slots {
		if err := kv.Set(key, data); err != nil {
			return fmt.Errorf("restore %q: %w", key, err)
		}
	}
	return nil
}

func seal(snap *Snapshot, passphrase string) ([]byte, error) {
	plaintext, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return Encrypt(plaintext, passphrase)
}

func open(data []byte, passphrase string) (*Snapshot, error) {
	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Export writes an encrypted snapshot of kv to w.
func Export(w io.Writer, kv store.KV, passphrase string) error {
	snap, err := TakeSnapshot(kv, time.Now())
	if err != nil {
		return err
	}
	data, err := seal(snap, passphrase)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import decrypts a backup from r and replaces the contents of kv with it.
// Nothing is written unless the whole backup decrypts and decodes.
func Import(r io.Reader, kv store.KV, passphrase string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	snap, err := open(data, passphrase)
	if err != nil {
		return err
	}
	return snap.Apply(kv)
}
