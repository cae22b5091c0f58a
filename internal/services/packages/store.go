package packages

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/storage"
	"github.com/pkg/errors"
)

const (
	ActiveKey   = "packageTracker_packages"
	ArchivedKey = "packageTracker_archived"
)

func slotKey(c models.Collection) string {
	if c == models.CollectionArchived {
		return ArchivedKey
	}
	return ActiveKey
}

// Store holds the active and archived collections, newest first.
// Each collection is read from the KV on first use and every mutation is
// written back before the in-memory copy changes. Operations are serialized.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	now func() time.Time

	loaded map[models.Collection]bool
	lists  map[models.Collection][]models.Package
}

var _ Repository = (*Store)(nil)

func NewStore(kv storage.KV) *Store {
	return &Store{
		kv:     kv,
		now:    func() time.Time { return time.Now().UTC() },
		loaded: make(map[models.Collection]bool, 2),
		lists:  make(map[models.Collection][]models.Package, 2),
	}
}

// WithClock replaces the archive timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) load(ctx context.Context, c models.Collection) ([]models.Package, error) {
	if !c.Valid() {
		return nil, errors.Errorf("unknown collection %q", c)
	}
	if s.loaded[c] {
		return s.lists[c], nil
	}
	b, ok, err := s.kv.Read(ctx, slotKey(c))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", c)
	}
	var list []models.Package
	if ok {
		if list, err = decodeList(b); err != nil {
			return nil, errors.Wrapf(err, "read %s", c)
		}
	}
	s.lists[c] = list
	s.loaded[c] = true
	return list, nil
}

func decodeList(b []byte) ([]models.Package, error) {
	var list []models.Package
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, errors.Wrap(models.ErrInvalidFormat, err.Error())
	}
	return list, nil
}

type savedSlot struct {
	key   string
	value []byte
	ok    bool
}

// commit writes every changed collection, then swaps the in-memory view.
// A failed write puts back the slots already written.
func (s *Store) commit(ctx context.Context, changes map[models.Collection][]models.Package) error {
	order := []models.Collection{models.CollectionArchived, models.CollectionActive}
	var written []savedSlot
	for _, c := range order {
		list, ok := changes[c]
		if !ok {
			continue
		}
		if list == nil {
			list = []models.Package{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return errors.Wrapf(err, "marshal %s", c)
		}
		key := slotKey(c)
		prev, had, err := s.kv.Read(ctx, key)
		if err != nil {
			s.rollback(ctx, written)
			return errors.Wrapf(err, "write %s", c)
		}
		if err := s.kv.Write(ctx, key, b); err != nil {
			s.rollback(ctx, written)
			return errors.Wrapf(err, "write %s", c)
		}
		written = append(written, savedSlot{key: key, value: prev, ok: had})
	}
	for c, list := range changes {
		s.lists[c] = list
		s.loaded[c] = true
	}
	return nil
}

func (s *Store) rollback(ctx context.Context, written []savedSlot) {
	for _, w := range written {
		if w.ok {
			_ = s.kv.Write(ctx, w.key, w.value)
		} else {
			_ = s.kv.Delete(ctx, w.key)
		}
	}
}

func indexOf(list []models.Package, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func without(list []models.Package, i int) []models.Package {
	out := make([]models.Package, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func prepend(p models.Package, list []models.Package) []models.Package {
	out := make([]models.Package, 0, len(list)+1)
	out = append(out, p)
	return append(out, list...)
}

func clonePackage(p models.Package) models.Package {
	if p.ArchivedDate != nil {
		t := *p.ArchivedDate
		p.ArchivedDate = &t
	}
	return p
}

func cloneList(list []models.Package) []models.Package {
	out := make([]models.Package, len(list))
	for i := range list {
		out[i] = clonePackage(list[i])
	}
	return out
}

// List returns the collection in stored order.
func (s *Store) List(ctx context.Context, c models.Collection) ([]models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}
	return cloneList(list), nil
}

// Add prepends p to the active collection. Uniqueness is the caller's job.
func (s *Store) Add(ctx context.Context, p models.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, models.CollectionActive)
	if err != nil {
		return err
	}
	return s.commit(ctx, map[models.Collection][]models.Package{
		models.CollectionActive: prepend(clonePackage(p), list),
	})
}

// Delete removes id from c. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, c models.Collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, c)
	if err != nil {
		return false, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return false, nil
	}
	return true, s.commit(ctx, map[models.Collection][]models.Package{c: without(list, i)})
}

// Update merges patch into the record with the given id. Reports whether it was found.
func (s *Store) Update(ctx context.Context, c models.Collection, id string, patch models.PackagePatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, c)
	if err != nil {
		return false, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return false, nil
	}
	next := cloneList(list)
	patch.Apply(&next[i])
	return true, s.commit(ctx, map[models.Collection][]models.Package{c: next})
}

// Archive stamps the record and moves it to the front of the archive.
func (s *Store) Archive(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.load(ctx, models.CollectionActive)
	if err != nil {
		return false, err
	}
	i := indexOf(active, id)
	if i < 0 {
		return false, nil
	}
	archived, err := s.load(ctx, models.CollectionArchived)
	if err != nil {
		return false, err
	}

	p := clonePackage(active[i])
	at := s.now()
	p.ArchivedDate = &at

	return true, s.commit(ctx, map[models.Collection][]models.Package{
		models.CollectionArchived: prepend(p, archived),
		models.CollectionActive:   without(active, i),
	})
}

// Unarchive clears the archive stamp and moves the record to the front of the active list.
func (s *Store) Unarchive(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	archived, err := s.load(ctx, models.CollectionArchived)
	if err != nil {
		return false, err
	}
	i := indexOf(archived, id)
	if i < 0 {
		return false, nil
	}
	active, err := s.load(ctx, models.CollectionActive)
	if err != nil {
		return false, err
	}

	p := clonePackage(archived[i])
	p.ArchivedDate = nil

	return true, s.commit(ctx, map[models.Collection][]models.Package{
		models.CollectionActive:   prepend(p, active),
		models.CollectionArchived: without(archived, i),
	})
}

// Clear drops every record of c.
func (s *Store) Clear(ctx context.Context, c models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.Valid() {
		return errors.Errorf("unknown collection %q", c)
	}
	if err := s.kv.Delete(ctx, slotKey(c)); err != nil {
		return errors.Wrapf(err, "clear %s", c)
	}
	s.lists[c] = nil
	s.loaded[c] = true
	return nil
}
