package spotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAssetSet(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"BAW.png", "dal.svg", "UAL.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "AAL"), 0755))

	assets, err := LoadAssetSet(dir)
	require.NoError(t, err)

	assert.True(t, assets.HasAsset("BAW"))
	assert.True(t, assets.HasAsset("DAL"))
	assert.True(t, assets.HasAsset("ual"))
	assert.False(t, assets.HasAsset("AAL"))
}

func TestLoadAssetSetMissingDir(t *testing.T) {
	_, err := LoadAssetSet(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestResolveOperatorCode(t *testing.T) {
	assets := NewAssetSet("BAW", "DAL")

	assert.Equal(t, "BAW", ResolveOperatorCode(assets, strPtr("BAW")))
	assert.Equal(t, OperatorPlaceholder, ResolveOperatorCode(assets, strPtr("XYZ")))
	assert.Equal(t, OperatorPlaceholder, ResolveOperatorCode(assets, strPtr("  ")))
	assert.Equal(t, OperatorPlaceholder, ResolveOperatorCode(assets, nil))

	assert.Equal(t, "XYZ", ResolveOperatorCode(nil, strPtr("XYZ")))
	assert.Equal(t, OperatorPlaceholder, ResolveOperatorCode(nil, nil))
}
