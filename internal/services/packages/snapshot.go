package packages

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/pkg/errors"
)

const SnapshotVersion = "1.0"

// Snapshot is the backup file. A nil collection means "not present":
// importing it leaves the live collection alone.
type Snapshot struct {
	Packages   *[]models.Package `json:"packages,omitempty"`
	Archived   *[]models.Package `json:"archived,omitempty"`
	ExportDate time.Time         `json:"exportDate"`
	Version    string            `json:"version"`
}

func (s Snapshot) ActiveCount() int {
	if s.Packages == nil {
		return 0
	}
	return len(*s.Packages)
}

func (s Snapshot) ArchivedCount() int {
	if s.Archived == nil {
		return 0
	}
	return len(*s.Archived)
}

// ParseSnapshot reads a backup document. Anything that is not a JSON
// object of the expected shape is models.ErrInvalidFormat.
func ParseSnapshot(r io.Reader) (Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "read snapshot")
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return Snapshot{}, errors.Wrap(models.ErrInvalidFormat, "snapshot must be a JSON object")
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, errors.Wrap(models.ErrInvalidFormat, err.Error())
	}
	return snap, nil
}

// Encode writes snap as indented JSON.
func (s Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encode snapshot")
}

// Export captures both collections.
func (s *Store) Export(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.load(ctx, models.CollectionActive)
	if err != nil {
		return Snapshot{}, err
	}
	archived, err := s.load(ctx, models.CollectionArchived)
	if err != nil {
		return Snapshot{}, err
	}
	a, r := cloneList(active), cloneList(archived)
	return Snapshot{
		Packages:   &a,
		Archived:   &r,
		ExportDate: s.now(),
		Version:    SnapshotVersion,
	}, nil
}

// Import replaces the collections present in snap. No merge.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	changes := make(map[models.Collection][]models.Package, 2)
	if snap.Packages != nil {
		changes[models.CollectionActive] = cloneList(*snap.Packages)
	}
	if snap.Archived != nil {
		changes[models.CollectionArchived] = cloneList(*snap.Archived)
	}
	if len(changes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, changes)
}
