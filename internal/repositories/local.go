package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/peterbourgon/diskv/v3"
)

// HistoryKey is the diskv key holding the serialized device history.
const HistoryKey = "mood-bunny-history"

// RecordVersion is the current layout of the local history record.
const RecordVersion = 1

// record is the on-disk layout. Version 0 is a bare JSON array of entries.
type record struct {
	Version int            `json:"version"`
	Entries []models.Entry `json:"entries"`
}

// EncodeRecord serializes entries in the current record layout.
func EncodeRecord(entries []models.Entry) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := json.Marshal(record{Version: RecordVersion, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode history: %v", shared.ErrStorageFailure, err)
	}
	return data, nil
}

// DecodeRecord parses a versioned record or a legacy bare array.
//
// A record holding any invalid entry is treated as corrupt.
func DecodeRecord(data []byte) ([]models.Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []models.Entry{}, nil
	}

	if data[0] == '[' {
		var legacy []models.Entry
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: unreadable legacy history: %v", shared.ErrStorageFailure, err)
		}
		return validEntries(legacy)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: unreadable history: %v", shared.ErrStorageFailure, err)
	}
	if rec.Version < 1 || rec.Version > RecordVersion {
		return nil, fmt.Errorf("%w: unsupported history version %d", shared.ErrStorageFailure, rec.Version)
	}
	return validEntries(rec.Entries)
}

// validEntries rejects the whole record when any entry breaks the model rules.
func validEntries(entries []models.Entry) ([]models.Entry, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: invalid entry %d (%s): %v", shared.ErrStorageFailure, i, e.ID, err)
		}
	}
	return nonNil(entries), nil
}

// LocalAdapter keeps the anonymous device history in a single diskv slot.
//
// The list is read once and cached; every mutation updates the cache and then rewrites the whole slot.
// A failed write leaves the mutation in the cache and is reported as [shared.ErrStorageFailure].
type LocalAdapter struct {
	mu      sync.Mutex
	d       *diskv.Diskv
	entries []models.Entry
	loaded  bool
	logger  *log.Logger
}

// NewLocalAdapter creates a [LocalAdapter] storing its slot under dir.
func NewLocalAdapter(dir string, logger *log.Logger) *LocalAdapter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LocalAdapter{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024,
		}),
		logger: shared.WithLogger(logger, "component", "local"),
	}
}

// Load returns the cached history, reading the slot on first use.
//
// A missing slot is an empty history. An unreadable one is an empty history plus a storage error.
func (a *LocalAdapter) Load(ctx context.Context) ([]models.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.ensureLoaded()
	return copyEntries(a.entries), err
}

// Save replaces the history with entries and writes it to the slot.
func (a *LocalAdapter) Save(entries []models.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = copyEntries(entries)
	a.loaded = true
	return a.persist()
}

// Insert prepends e.
func (a *LocalAdapter) Insert(ctx context.Context, e models.Entry) (models.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.load()
	a.entries = append([]models.Entry{e}, a.entries...)
	return e, a.persist()
}

// Update patches the entry with id.
func (a *LocalAdapter) Update(ctx context.Context, id string, p models.Patch) (models.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.load()
	for i := range a.entries {
		if a.entries[i].ID == id {
			a.entries[i] = a.entries[i].Apply(p)
			return a.entries[i], a.persist()
		}
	}
	return models.Entry{}, fmt.Errorf("%w: %s", shared.ErrNotFound, id)
}

// Delete removes the entry with id.
func (a *LocalAdapter) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.load()
	for i := range a.entries {
		if a.entries[i].ID == id {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			return a.persist()
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
}

// Clear empties the history and erases the slot.
func (a *LocalAdapter) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = []models.Entry{}
	a.loaded = true
	if !a.d.Has(HistoryKey) {
		return nil
	}
	if err := a.d.Erase(HistoryKey); err != nil {
		return fmt.Errorf("%w: failed to erase history: %v", shared.ErrStorageFailure, err)
	}
	return nil
}

// load reads the slot for a mutation; a read failure has already been logged and mutations proceed on the empty list.
func (a *LocalAdapter) load() {
	_ = a.ensureLoaded()
}

func (a *LocalAdapter) ensureLoaded() error {
	if a.loaded {
		return nil
	}
	a.loaded = true
	a.entries = []models.Entry{}

	if !a.d.Has(HistoryKey) {
		return nil
	}

	data, err := a.d.Read(HistoryKey)
	if err != nil {
		a.logger.Warn("history slot unreadable", "err", err)
		return fmt.Errorf("%w: failed to read history: %v", shared.ErrStorageFailure, err)
	}

	entries, err := DecodeRecord(data)
	if err != nil {
		a.logger.Warn("history slot corrupt", "err", err)
		return err
	}
	a.entries = entries
	return nil
}

func (a *LocalAdapter) persist() error {
	data, err := EncodeRecord(a.entries)
	if err != nil {
		return err
	}
	if err := a.d.Write(HistoryKey, data); err != nil {
		a.logger.Warn("history not saved", "err", err)
		return fmt.Errorf("%w: failed to write history: %v", shared.ErrStorageFailure, err)
	}
	return nil
}

func copyEntries(entries []models.Entry) []models.Entry {
	return append([]models.Entry{}, entries...)
}

func nonNil(entries []models.Entry) []models.Entry {
	if entries == nil {
		return []models.Entry{}
	}
	return entries
}
