package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

// Repository maps domain records onto Store keys.
type Repository struct {
	store Store
}

var (
	_ catalog.Repository     = (*Repository)(nil)
	_ sprint.Repository      = (*Repository)(nil)
	_ domain.EventRepository = (*Repository)(nil)
)

// NewRepository wraps store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Store returns the underlying store.
func (r *Repository) Store() Store {
	return r.store
}

func catalogKey(id string) string { return CatalogPrefix + id }
func sprintKey(n int) string      { return SprintPrefix + strconv.Itoa(n) }

func (r *Repository) get(key string, v interface{}) error {
	data, err := r.store.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *Repository) set(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.store.Set(key, data)
}

func (r *Repository) LoadCatalog(id string) (*catalog.Catalog, error) {
	var c catalog.Catalog
	err := r.get(catalogKey(id), &c)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", id, catalog.ErrCatalogNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) SaveCatalog(c *catalog.Catalog) error {
	if c.ID == "" {
		return fmt.Errorf("catalog id cannot be empty")
	}
	return r.set(catalogKey(c.ID), c)
}

func (r *Repository) DeleteCatalog(id string) error {
	if _, err := r.store.Get(catalogKey(id)); errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", id, catalog.ErrCatalogNotFound)
	}
	return r.store.Delete(catalogKey(id))
}

// ListCatalogs returns every catalog ordered by creation time, then id.
func (r *Repository) ListCatalogs() ([]*catalog.Catalog, error) {
	entries, err := r.store.Scan(CatalogPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*catalog.Catalog, 0, len(entries))
	for _, e := range entries {
		var c catalog.Catalog
		if err := json.Unmarshal(e.Value, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", e.Key, err)
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) LoadSprint(number int) (*sprint.Sprint, error) {
	var s sprint.Sprint
	err := r.get(sprintKey(number), &s)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%d: %w", number, sprint.ErrSprintNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SaveSprint(s *sprint.Sprint) error {
	if s.Number <= 0 {
		return fmt.Errorf("sprint number must be positive, got %d", s.Number)
	}
	return r.set(sprintKey(s.Number), s)
}

// ListSprints returns every sprint ordered by sprint number.
func (r *Repository) ListSprints() ([]*sprint.Sprint, error) {
	entries, err := r.store.Scan(SprintPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*sprint.Sprint, 0, len(entries))
	for _, e := range entries {
		var s sprint.Sprint
		if err := json.Unmarshal(e.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", e.Key, err)
		}
		out = append(out, &s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *Repository) DeleteAllSprints() (int, error) {
	entries, err := r.store.Scan(SprintPrefix)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := r.store.Delete(e.Key); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// LoadConfig returns the stored sprint configuration, or the default one
// flagged IsDefault.
func (r *Repository) LoadConfig() (sprint.Config, error) {
	var c sprint.Config
	err := r.get(ConfigKey, &c)
	if errors.Is(err, ErrKeyNotFound) {
		return sprint.DefaultConfig(), nil
	}
	if err != nil {
		return sprint.Config{}, err
	}
	c.IsDefault = false
	return c, nil
}

func (r *Repository) SaveConfig(c sprint.Config) error {
	c.IsDefault = false
	return r.set(ConfigKey, c)
}

// eventKey orders journal entries by time under lexical key order.
func eventKey(e domain.Event) string {
	return fmt.Sprintf("%s%020d-%s", EventPrefix, e.Timestamp.UnixNano(), e.ID)
}

func (r *Repository) AppendEvent(e domain.Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.store.Set(eventKey(e), data)
}

func (r *Repository) LoadEvents() ([]domain.Event, error) {
	entries, err := r.store.Scan(EventPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(entries))
	for _, e := range entries {
		var ev domain.Event
		if err := json.Unmarshal(e.Value, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", e.Key, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
