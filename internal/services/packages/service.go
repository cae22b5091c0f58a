package packages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/PackageTracker/internal/broker/messages"
	"github.com/BearBump/PackageTracker/internal/carriers"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context, c models.Collection) ([]models.Package, error)
	Add(ctx context.Context, p models.Package) error
	Delete(ctx context.Context, c models.Collection, id string) (bool, error)
	Update(ctx context.Context, c models.Collection, id string, patch models.PackagePatch) (bool, error)
	Archive(ctx context.Context, id string) (bool, error)
	Unarchive(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context, c models.Collection) error
	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, snap Snapshot) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo     Repository
	producer Producer
	topic    string

	now   func() time.Time
	newID func() string

	// duplicate check and insert must not interleave
	addMu sync.Mutex
}

// New builds the service. producer may be nil, then no change events are sent.
func New(repo Repository, producer Producer, topic string) *Service {
	return &Service{
		repo:     repo,
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newPackageID,
	}
}

func newPackageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Detect classifies a raw tracking number.
func (s *Service) Detect(raw string) carriers.Result {
	return carriers.Detect(raw)
}

func (s *Service) AddPackage(ctx context.Context, in models.PackageCreateInput) (models.Package, error) {
	number := strings.TrimSpace(in.TrackingNumber)
	if number == "" {
		return models.Package{}, models.ErrEmptyTrackingNumber
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()

	active, err := s.repo.List(ctx, models.CollectionActive)
	if err != nil {
		return models.Package{}, err
	}
	upper := strings.ToUpper(number)
	for _, p := range active {
		if strings.ToUpper(p.TrackingNumber) == upper {
			return models.Package{}, models.ErrDuplicateTrackingNumber
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultPackageName
	}

	det := carriers.Detect(number)
	now := s.now()
	p := models.Package{
		ID:             s.newID(),
		TrackingNumber: upper,
		Name:           name,
		Provider:       det.Carrier,
		ProviderKey:    det.Key,
		TrackingURL:    det.TrackingURL,
		Status:         carriers.StatusMessage(det),
		AddedDate:      now,
		LastUpdated:    now,
	}
	if err := s.repo.Add(ctx, p); err != nil {
		return models.Package{}, err
	}

	slog.Info("package added", "id", p.ID, "provider", p.ProviderKey)
	s.publish(ctx, messages.PackageChanged{
		Event:      messages.EventAdded,
		Collection: string(models.CollectionActive),
		PackageID:  p.ID,
		Provider:   p.ProviderKey,
	})
	return p, nil
}

func (s *Service) List(ctx context.Context, c models.Collection) ([]models.Package, error) {
	return s.repo.List(ctx, c)
}

// Counts returns the sizes of the active and archived collections.
func (s *Service) Counts(ctx context.Context) (active, archived int, err error) {
	a, err := s.repo.List(ctx, models.CollectionActive)
	if err != nil {
		return 0, 0, err
	}
	r, err := s.repo.List(ctx, models.CollectionArchived)
	if err != nil {
		return 0, 0, err
	}
	return len(a), len(r), nil
}

func (s *Service) Delete(ctx context.Context, c models.Collection, id string) (bool, error) {
	found, err := s.repo.Delete(ctx, c, id)
	if err != nil || !found {
		return found, err
	}
	s.publish(ctx, messages.PackageChanged{Event: messages.EventDeleted, Collection: string(c), PackageID: id})
	return true, nil
}

// Update merges patch into a package. Reports whether the package exists.
// An empty patch changes nothing.
func (s *Service) Update(ctx context.Context, c models.Collection, id string, patch models.PackagePatch) (bool, error) {
	if patch.Empty() {
		list, err := s.repo.List(ctx, c)
		if err != nil {
			return false, err
		}
		return indexOf(list, id) >= 0, nil
	}
	if patch.LastUpdated == nil {
		now := s.now()
		patch.LastUpdated = &now
	}
	found, err := s.repo.Update(ctx, c, id, patch)
	if err != nil || !found {
		return found, err
	}
	s.publish(ctx, messages.PackageChanged{Event: messages.EventUpdated, Collection: string(c), PackageID: id})
	return true, nil
}

func (s *Service) Archive(ctx context.Context, id string) (bool, error) {
	found, err := s.repo.Archive(ctx, id)
	if err != nil || !found {
		return found, err
	}
	s.publish(ctx, messages.PackageChanged{
		Event:      messages.EventArchived,
		Collection: string(models.CollectionArchived),
		PackageID:  id,
	})
	return true, nil
}

func (s *Service) Restore(ctx context.Context, id string) (bool, error) {
	found, err := s.repo.Unarchive(ctx, id)
	if err != nil || !found {
		return found, err
	}
	s.publish(ctx, messages.PackageChanged{
		Event:      messages.EventRestored,
		Collection: string(models.CollectionActive),
		PackageID:  id,
	})
	return true, nil
}

func (s *Service) Clear(ctx context.Context, c models.Collection) error {
	if err := s.repo.Clear(ctx, c); err != nil {
		return err
	}
	slog.Info("collection cleared", "collection", string(c))
	s.publish(ctx, messages.PackageChanged{Event: messages.EventCleared, Collection: string(c)})
	return nil
}

func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	return s.repo.Export(ctx)
}

func (s *Service) Import(ctx context.Context, snap Snapshot) error {
	if err := s.repo.Import(ctx, snap); err != nil {
		return err
	}
	a, r := snap.ActiveCount(), snap.ArchivedCount()
	slog.Info("backup restored", "active", a, "archived", r)
	msg := messages.PackageChanged{Event: messages.EventImported}
	if snap.Packages != nil {
		msg.ActiveCount = &a
	}
	if snap.Archived != nil {
		msg.ArchivedCount = &r
	}
	s.publish(ctx, msg)
	return nil
}

// ApplyUpdate applies an external status update to an active package.
// Unknown packages are skipped.
func (s *Service) ApplyUpdate(ctx context.Context, msg messages.PackageUpdated) error {
	if msg.PackageID == "" {
		return models.ErrMissingPackageID
	}
	patch := models.PackagePatch{
		Status:            msg.Status,
		Location:          msg.Location,
		EstimatedDelivery: msg.EstimatedDelivery,
	}
	if patch.Empty() {
		return nil
	}
	if !msg.UpdatedAt.IsZero() {
		at := msg.UpdatedAt.UTC()
		patch.LastUpdated = &at
	}
	found, err := s.Update(ctx, models.CollectionActive, msg.PackageID, patch)
	if err != nil {
		return err
	}
	if !found {
		slog.Debug("status update for unknown package", "id", msg.PackageID)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, msg messages.PackageChanged) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if msg.At.IsZero() {
		msg.At = s.now()
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal change event", "error", err.Error())
		return
	}
	key := []byte(msg.PackageID)
	if len(key) == 0 {
		key = []byte(msg.Collection)
	}
	if err := s.producer.Publish(ctx, s.topic, key, b); err != nil {
		slog.Warn("publish change event", "event", msg.Event, "error", err.Error())
	}
}

// BackupFileName is the suggested name for a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("package-tracker-backup-%s.json", t.UTC().Format("2006-01-02"))
}
