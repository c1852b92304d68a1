package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

var fixed = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newRepo(store storage.Store) *Repository {
	r := NewRepository(store, nil)
	r.now = func() time.Time { return fixed }
	return r
}

func TestWelcome(t *testing.T) {
	w := Welcome("Nova", fixed)
	assert.Equal(t, WelcomeID, w.ID)
	assert.Equal(t, RoleAssistant, w.Role)
	assert.Equal(t, StatusSent, w.Status)
	assert.Equal(t, "Hello. I am Nova. Neural modules initialized and ready. How can I assist with your research today?", w.Content)
}

func TestNewMessagesHaveUniqueIDs(t *testing.T) {
	a := NewUserMessage("hi", fixed)
	b := NewUserMessage("hi", fixed)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, WelcomeID, a.ID)
}

func TestNewErrorMessage(t *testing.T) {
	m := NewErrorMessage(nerrors.KindRateLimit, fixed)
	assert.True(t, m.IsError())
	assert.Equal(t, nerrors.KindRateLimit, m.ErrorType)
	assert.Equal(t, nerrors.UserText(nerrors.KindRateLimit), m.Content)
}

func TestHistoryOperations(t *testing.T) {
	w := Welcome("NtricAcid", fixed)
	u := NewUserMessage("question", fixed)
	e := NewErrorMessage(nerrors.KindUnknown, fixed)
	a := NewAssistantMessage("answer", fixed)

	h := Seed(w).Append(u).Append(e).Append(a)

	assert.Equal(t, 2, h.IndexOf(e.ID))
	assert.Equal(t, -1, h.IndexOf("missing"))
	assert.Equal(t, e.ID, h.LastError())

	reply, ok := h.LastReply()
	require.True(t, ok)
	assert.Equal(t, a.ID, reply.ID)

	trimmed := h.Without(u.ID, e.ID)
	assert.Len(t, trimmed, 2)
	assert.Len(t, h, 4, "Without does not modify the receiver")

	first := h.KeepFirst()
	require.Len(t, first, 1)
	assert.Equal(t, WelcomeID, first[0].ID)
	assert.Empty(t, History{}.KeepFirst())
	assert.Equal(t, "", Seed(w).LastError())
}

func TestMessageJSONFieldNames(t *testing.T) {
	m := Message{
		ID:             "1",
		Role:           RoleAssistant,
		Content:        "c",
		Timestamp:      fixed,
		GroundingLinks: []GroundingLink{{Title: "t", URI: "https://example.com"}},
		ImageURL:       "data:image/png;base64,AA==",
		Status:         StatusError,
		ErrorType:      nerrors.KindSafety,
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, k := range []string{"id", "role", "content", "timestamp", "groundingLinks", "imageUrl", "status", "errorType"} {
		assert.Contains(t, raw, k)
	}
	assert.NotContains(t, raw, "audioData")
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newRepo(store)

	h, err := r.Load(ctx, "NtricAcid", true)
	require.NoError(t, err)
	require.Len(t, h, 1, "absent key yields the seed")
	assert.Equal(t, WelcomeID, h[0].ID)

	h = h.Append(NewUserMessage("hello", fixed.Add(time.Minute)))
	require.NoError(t, r.Save(ctx, h, true))

	loaded, err := r.Load(ctx, "NtricAcid", true)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[1].Timestamp.Equal(fixed.Add(time.Minute)), "timestamps come back as time values")
	assert.Equal(t, "hello", loaded[1].Content)
}

func TestRepositoryPersistenceDisabled(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := newRepo(store)

	h := Seed(Welcome("NtricAcid", fixed)).Append(NewUserMessage("secret", fixed))
	require.NoError(t, r.Save(ctx, h, true))
	require.True(t, store.Has(HistoryKey))

	loaded, err := r.Load(ctx, "NtricAcid", false)
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "disabled persistence ignores stored history")
	assert.False(t, store.Has(HistoryKey), "and deletes it")

	require.NoError(t, r.Save(ctx, h, true))
	require.NoError(t, r.Save(ctx, h, false))
	assert.False(t, store.Has(HistoryKey))
}

func TestRepositoryMalformedFallsBackToSeed(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"garbage":    `{not json`,
		"wrong type": `{"id":"x"}`,
		"empty list": `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, HistoryKey, []byte(raw)))

			h, err := newRepo(store).Load(ctx, "NtricAcid", true)
			require.NoError(t, err)
			require.Len(t, h, 1)
			assert.Equal(t, WelcomeID, h[0].ID)
		})
	}
}
