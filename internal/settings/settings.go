// Package settings holds the user-facing preferences and their persistence.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// Key is the storage key of the persisted settings object.
const Key = "ntricacid_settings"

// UserSettings are the preferences shown on the settings screen.
type UserSettings struct {
	AIName             string     `json:"aiName"`
	UserName           string     `json:"userName"`
	VoiceEnabled       bool       `json:"voiceEnabled"`
	AutoPlayVoice      bool       `json:"autoPlayVoice"`
	PersistenceEnabled bool       `json:"persistenceEnabled"`
	CloudSyncEnabled   bool       `json:"cloudSyncEnabled"`
	LastSync           *time.Time `json:"lastSync,omitempty"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() UserSettings {
	return UserSettings{
		AIName:             "NtricAcid",
		UserName:           "Researcher",
		VoiceEnabled:       true,
		AutoPlayVoice:      false,
		PersistenceEnabled: true,
		CloudSyncEnabled:   false,
	}
}

// field describes one settable preference for Set and Fields.
type field struct {
	name string
	get  func(UserSettings) string
	set  func(*UserSettings, string) error
}

func boolField(name string, p func(*UserSettings) *bool) field {
	return field{
		name: name,
		get:  func(s UserSettings) string { return strconv.FormatBool(*p(&s)) },
		set: func(s *UserSettings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s expects true or false, got %q", name, v)
			}
			*p(s) = b
			return nil
		},
	}
}

func stringField(name string, p func(*UserSettings) *string) field {
	return field{
		name: name,
		get:  func(s UserSettings) string { return *p(&s) },
		set: func(s *UserSettings, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return fmt.Errorf("%s cannot be empty", name)
			}
			*p(s) = v
			return nil
		},
	}
}

var fields = []field{
	stringField("aiName", func(s *UserSettings) *string { return &s.AIName }),
	stringField("userName", func(s *UserSettings) *string { return &s.UserName }),
	boolField("voiceEnabled", func(s *UserSettings) *bool { return &s.VoiceEnabled }),
	boolField("autoPlayVoice", func(s *UserSettings) *bool { return &s.AutoPlayVoice }),
	boolField("persistenceEnabled", func(s *UserSettings) *bool { return &s.PersistenceEnabled }),
	boolField("cloudSyncEnabled", func(s *UserSettings) *bool { return &s.CloudSyncEnabled }),
}

// Set parses value into the preference named name (JSON field name, case-insensitive).
func (s *UserSettings) Set(name, value string) error {
	for _, f := range fields {
		if strings.EqualFold(f.name, name) {
			return f.set(s, value)
		}
	}
	return fmt.Errorf("unknown setting %q", name)
}

// Pair is one name/value line for display.
type Pair struct {
	Name  string
	Value string
}

// Fields lists every settable preference in display order.
func (s UserSettings) Fields() []Pair {
	out := make([]Pair, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, Pair{Name: f.name, Value: f.get(s)})
	}
	if s.LastSync != nil {
		out = append(out, Pair{Name: "lastSync", Value: s.LastSync.Format(time.RFC3339)})
	}
	return out
}

// Repository loads and saves settings through a storage.Store.
type Repository struct {
	store storage.Store
	log   *logging.Logger
}

// NewRepository creates a Repository. A nil logger discards output.
func NewRepository(store storage.Store, log *logging.Logger) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{store: store, log: log.WithPrefix("settings")}
}

// Load returns the stored settings merged over Defaults. Missing or
// malformed data yields Defaults.
func (r *Repository) Load(ctx context.Context) (UserSettings, error) {
	s := Defaults()

	data, err := r.store.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, nerrors.StorageFailed("read", Key, err)
	}

	merged := Defaults()
	if err := json.Unmarshal(data, &merged); err != nil {
		r.log.Warn("stored settings are malformed, using defaults", logging.Error(nerrors.CorruptState(Key, err)))
		r.log.Event(logging.EventStorageCorrupt, logging.Key(Key))
		r.log.Metrics().RecordStorageCorrupt()
		return s, nil
	}

	r.log.Event(logging.EventStorageLoad, logging.Key(Key))
	return merged, nil
}

// Save writes the whole settings object.
func (r *Repository) Save(ctx context.Context, s UserSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.store.Set(ctx, Key, data); err != nil {
		return nerrors.StorageFailed("write", Key, err)
	}
	r.log.Event(logging.EventStorageSave, logging.Key(Key))
	return nil
}
