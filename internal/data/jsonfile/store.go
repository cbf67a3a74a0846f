package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Store snapshots the whole order set to a single JSON document. It is a
// startup/shutdown collaborator, not a mid-run database.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

type snapshot struct {
	Orders []data.Order `json:"orders"`
}

// Load returns the persisted orders, or an empty slice when no snapshot
// exists yet.
func (s *Store) Load() ([]data.Order, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read orders snapshot")
	}

	var snap snapshot
	if err = json.Unmarshal(raw, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal orders snapshot")
	}
	return snap.Orders, nil
}

// Save writes the snapshot atomically via a temp file rename.
func (s *Store) Save(orders []data.Order) error {
	raw, err := json.MarshalIndent(snapshot{Orders: orders}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal orders snapshot")
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create snapshot directory")
	}

	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write snapshot")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close snapshot")
	}

	err = os.Rename(tmp.Name(), s.path)
	return errors.Wrap(err, "failed to replace snapshot")
}
