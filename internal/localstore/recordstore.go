package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// snapshot is the on-disk shape of one collection: an ordered list of raw
// records. Order is insertion order, matching what the record store holds
// in memory.
type snapshot struct {
	Records []json.RawMessage `json:"records"`
}

// recordID extracts the id field every entity record carries.
func recordID(raw json.RawMessage) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", fmt.Errorf("decode record id: %w", err)
	}
	if probe.ID == "" {
		return "", fmt.Errorf("record has no id")
	}
	return probe.ID, nil
}

// RecordStore adapts the snapshot file store to the persistence contract
// used by the record store: one snapshot key per (owner, kind) pair.
type RecordStore struct {
	files *FileStore
}

func NewRecordStore(files *FileStore) *RecordStore {
	return &RecordStore{files: files}
}

// SnapshotKey is the snapshot key for an owner's collection of a kind.
func SnapshotKey(owner string, kind core.EntityKind) string {
	return owner + "." + string(kind)
}

func (r *RecordStore) load(owner string, kind core.EntityKind) (snapshot, error) {
	data, err := r.files.Get(SnapshotKey(owner, kind))
	if err != nil {
		if errors.Is(err, ErrNoKey) {
			return snapshot{}, nil
		}
		return snapshot{}, err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decode snapshot %s/%s: %w", owner, kind, err)
	}
	return snap, nil
}

func (r *RecordStore) save(owner string, kind core.EntityKind, snap snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s/%s: %w", owner, kind, err)
	}
	return r.files.Put(SnapshotKey(owner, kind), data)
}

func (r *RecordStore) LoadAll(ctx context.Context, kind core.EntityKind, owner string) ([]json.RawMessage, error) {
	snap, err := r.load(owner, kind)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

func (r *RecordStore) Insert(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	snap, err := r.load(owner, kind)
	if err != nil {
		return err
	}
	for _, existing := range snap.Records {
		existingID, err := recordID(existing)
		if err != nil {
			continue
		}
		if existingID == id {
			return fmt.Errorf("insert %s/%s: duplicate id", kind, id)
		}
	}
	snap.Records = append(snap.Records, record)
	return r.save(owner, kind, snap)
}

func (r *RecordStore) Update(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	snap, err := r.load(owner, kind)
	if err != nil {
		return err
	}
	for i, existing := range snap.Records {
		existingID, err := recordID(existing)
		if err != nil {
			continue
		}
		if existingID == id {
			snap.Records[i] = record
			return r.save(owner, kind, snap)
		}
	}
	return fmt.Errorf("update %s/%s: %w", kind, id, core.ErrNotFound)
}

func (r *RecordStore) Delete(ctx context.Context, kind core.EntityKind, owner, id string) error {
	snap, err := r.load(owner, kind)
	if err != nil {
		return err
	}
	for i, existing := range snap.Records {
		existingID, err := recordID(existing)
		if err != nil {
			continue
		}
		if existingID == id {
			snap.Records = append(snap.Records[:i], snap.Records[i+1:]...)
			return r.save(owner, kind, snap)
		}
	}
	return fmt.Errorf("delete %s/%s: %w", kind, id, core.ErrNotFound)
}

// ReplaceAll overwrites the whole collection snapshot in one write. The
// snapshot worker uses this to mirror in-memory state.
func (r *RecordStore) ReplaceAll(ctx context.Context, kind core.EntityKind, owner string, records []json.RawMessage) error {
	return r.save(owner, kind, snapshot{Records: records})
}
