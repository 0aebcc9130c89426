package catalog

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefault_IsValid(t *testing.T) {
	c, err := Default(booster.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, []string{"dmu-draft", "neo-set", "mkm-collector"}, c.Keys())

	dmu, err := c.Get("dmu-draft")
	require.NoError(t, err)
	assert.Equal(t, "dmu", dmu.SetCode)
	assert.Equal(t, 15, dmu.NominalSize())
	require.Len(t, dmu.Slots[2].Odds, 2)
	assert.Equal(t, model.Rare, dmu.Slots[2].Odds[0].Rarity, "odds keep declaration order")
}

func TestGet_ReturnsDeepCopies(t *testing.T) {
	c, err := Default(booster.NewRegistry())
	require.NoError(t, err)

	a, err := c.Get("mkm-collector")
	require.NoError(t, err)
	a.Slots[0].Count = 99
	*a.Slots[0].Foil = false
	a.Slots[2].Odds[0].Weight = 0

	b, err := c.Get("mkm-collector")
	require.NoError(t, err)
	assert.Equal(t, 4, b.Slots[0].Count)
	assert.True(t, *b.Slots[0].Foil)
	assert.Equal(t, 0.8, b.Slots[2].Odds[0].Weight)

	list := c.List()
	list[0].Slots = nil
	again, _ := c.Get(list[0].Key)
	assert.NotEmpty(t, again.Slots)
}

func TestGet_Unknown(t *testing.T) {
	c, err := Default(booster.NewRegistry())
	require.NoError(t, err)

	_, err = c.Get("nope")
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, c.Has("nope"))
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"no packs", ``},
		{"missing key", "[[packs]]\nset_code='neo'\n[[packs.slots]]\ncount=1\n"},
		{"missing set", "[[packs]]\nkey='a'\n[[packs.slots]]\ncount=1\n"},
		{"negative price", "[[packs]]\nkey='a'\nset_code='neo'\nprice=-1\n[[packs.slots]]\ncount=1\n"},
		{"no slots", "[[packs]]\nkey='a'\nset_code='neo'\n"},
		{"negative count", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount=-2\n"},
		{"unknown rarity", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount=1\nodds=[{rarity='special', weight=1.0}]\n"},
		{"weightless odds", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount=1\nodds=[{rarity='rare', weight=0.0}]\n"},
		{"unknown resolver", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount=1\nresolver='mystery'\n"},
		{"unknown count func", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount_func='mystery'\n"},
		{"duplicate key", "[[packs]]\nkey='a'\nset_code='neo'\n[[packs.slots]]\ncount=1\n[[packs]]\nkey='a'\nset_code='dmu'\n[[packs.slots]]\ncount=1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml), booster.NewRegistry())
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("[[packs]\nkey="), booster.NewRegistry())
	require.Error(t, err)
}

func TestParse_NormalizesFields(t *testing.T) {
	c, err := Parse([]byte("[[packs]]\nkey=' starter '\nset_code=' NEO '\n[[packs.slots]]\ncount=1\nfoil=false\n"), booster.NewRegistry())
	require.NoError(t, err)

	p, err := c.Get("starter")
	require.NoError(t, err)
	assert.Equal(t, "neo", p.SetCode)
	assert.Equal(t, "starter", p.Name)
	require.NotNil(t, p.Slots[0].Foil)
	assert.False(t, *p.Slots[0].Foil)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packs.toml")
	reg := booster.NewRegistry()

	t.Run("missing file uses defaults", func(t *testing.T) {
		c, err := Load(path, reg, discardLogger())
		require.NoError(t, err)
		assert.True(t, c.Has("dmu-draft"))
	})

	t.Run("override replaces defaults", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("[[packs]]\nkey='mine'\nset_code='lea'\n[[packs.slots]]\ncount=15\n"), 0644))
		c, err := Load(path, reg, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"mine"}, c.Keys())
	})

	t.Run("invalid override warns and uses defaults", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("not = [toml"), 0644))
		var buf bytes.Buffer
		c, err := Load(path, reg, slog.New(slog.NewTextHandler(&buf, nil)))
		require.NoError(t, err)
		assert.True(t, c.Has("dmu-draft"))
		assert.Contains(t, buf.String(), "invalid pack catalog")
	})
}

func TestDefaultTOML_RoundTrips(t *testing.T) {
	c, err := Parse(DefaultTOML(), booster.NewRegistry())
	require.NoError(t, err)
	assert.Len(t, c.Keys(), 3)
}
