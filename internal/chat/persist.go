package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// HistoryKey is the storage key of the persisted message list.
const HistoryKey = "ntricacid_history"

// Repository loads and saves the history through a storage.Store.
type Repository struct {
	store storage.Store
	log   *logging.Logger
	now   func() time.Time
}

// NewRepository creates a Repository. A nil logger discards output.
func NewRepository(store storage.Store, log *logging.Logger) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{
		store: store,
		log:   log.WithPrefix("history"),
		now:   time.Now,
	}
}

// Load returns the persisted history, or the seed when persistence is
// off, nothing is stored, the list is empty, or the stored value cannot
// be decoded. With persistence off any stored history is deleted.
func (r *Repository) Load(ctx context.Context, aiName string, persistence bool) (History, error) {
	seed := Seed(Welcome(aiName, r.now()))

	if !persistence {
		if err := r.store.Delete(ctx, HistoryKey); err != nil {
			return seed, nerrors.StorageFailed("delete", HistoryKey, err)
		}
		return seed, nil
	}

	data, err := r.store.Get(ctx, HistoryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return seed, nil
	}
	if err != nil {
		return seed, nerrors.StorageFailed("read", HistoryKey, err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		r.log.Warn("stored history is malformed, starting fresh", logging.Error(nerrors.CorruptState(HistoryKey, err)))
		r.log.Event(logging.EventStorageCorrupt, logging.Key(HistoryKey))
		r.log.Metrics().RecordStorageCorrupt()
		return seed, nil
	}
	if len(h) == 0 {
		return seed, nil
	}

	r.log.Event(logging.EventStorageLoad, logging.Key(HistoryKey), logging.MessageCount(len(h)))
	return h, nil
}

// Save writes the whole list when persistence is on and deletes the key otherwise.
func (r *Repository) Save(ctx context.Context, h History, persistence bool) error {
	if !persistence {
		if err := r.store.Delete(ctx, HistoryKey); err != nil {
			return nerrors.StorageFailed("delete", HistoryKey, err)
		}
		r.log.Event(logging.EventStorageDelete, logging.Key(HistoryKey))
		return nil
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.store.Set(ctx, HistoryKey, data); err != nil {
		return nerrors.StorageFailed("write", HistoryKey, err)
	}
	r.log.Event(logging.EventStorageSave, logging.Key(HistoryKey), logging.MessageCount(len(h)))
	return nil
}
