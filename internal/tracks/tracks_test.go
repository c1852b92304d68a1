package tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	seen := map[string]bool{}
	for _, tr := range all {
		assert.NotEmpty(t, tr.Title)
		assert.NotEmpty(t, tr.Prompt)
		assert.False(t, seen[tr.ID], "duplicate id %s", tr.ID)
		seen[tr.ID] = true
	}

	all[0].Title = "changed"
	assert.NotEqual(t, "changed", All()[0].Title)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		ref     string
		wantID  string
		wantErr bool
	}{
		{"zero-day", "zero-day", false},
		{" recon-master ", "recon-master", false},
		{"1", "zero-day", false},
		{"4", "recon-master", false},
		{"0", "", true},
		{"5", "", true},
		{"2x", "", true},
		{"nope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Lookup(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
