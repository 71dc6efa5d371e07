package itemdefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/validation"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(validation.NewSchemaValidator())
	require.NoError(t, err)
	return l
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "items.yaml", `
v: 1
items:
  - defId: 7
    key: copper_ore
    size: {w: 1, h: 1}
    stack: {mode: stack, max: 40}
  - defId: 8
    key: bronze_helm
    size: {w: 2, h: 2}
    allowed:
      equipmentSlots: [head]
`)

	file, err := newTestLoader(t).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, file.Items, 2)

	assert.Equal(t, uint32(7), file.Items[0].TypeID)
	assert.Equal(t, uint32(40), file.Items[0].Stack.Max)
	assert.Equal(t, []domain.EquipSlot{domain.EquipSlotHead}, file.Items[1].Slots())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "items.json", `{"v": 1, "items": [{"defId": 3, "key": "rope", "size": {"w": 1, "h": 1}}]}`)

	file, err := newTestLoader(t).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, file.Items, 1)
	assert.Equal(t, "rope", file.Items[0].Key)
}

func TestLoad_RepositoryCatalog(t *testing.T) {
	file, err := newTestLoader(t).Load(context.Background(), filepath.Join("..", "..", "configs", "items.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, file.Items)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "missing items",
			data:    `{"v": 1}`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "zero size",
			data:    `{"v": 1, "items": [{"defId": 1, "key": "a", "size": {"w": 0, "h": 1}}]}`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "unknown stack mode",
			data:    `{"v": 1, "items": [{"defId": 1, "key": "a", "size": {"w": 1, "h": 1}, "stack": {"mode": "pile"}}]}`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "stack without max",
			data:    `{"v": 1, "items": [{"defId": 1, "key": "a", "size": {"w": 1, "h": 1}, "stack": {"mode": "stack"}}]}`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "bad slot",
			data:    `{"v": 1, "items": [{"defId": 1, "key": "a", "size": {"w": 1, "h": 1}, "allowed": {"equipmentSlots": ["tail"]}}]}`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "duplicate id",
			data: `{"v": 1, "items": [
				{"defId": 1, "key": "a", "size": {"w": 1, "h": 1}},
				{"defId": 1, "key": "b", "size": {"w": 1, "h": 1}}]}`,
			wantErr: ErrDuplicateDef,
		},
		{
			name: "duplicate key",
			data: `{"v": 1, "items": [
				{"defId": 1, "key": "a", "size": {"w": 1, "h": 1}},
				{"defId": 2, "key": "a", "size": {"w": 1, "h": 1}}]}`,
			wantErr: ErrDuplicateDef,
		},
	}

	l := newTestLoader(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newTestLoader(t).Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
