package spotting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OperatorPlaceholder is used when an operator has no logo asset.
const OperatorPlaceholder = "preview-airline"

// OperatorAssets reports which operator codes have a logo available.
type OperatorAssets interface {
	HasAsset(code string) bool
}

// AssetSet is an in-memory OperatorAssets.
type AssetSet map[string]struct{}

// NewAssetSet builds a set from codes.
func NewAssetSet(codes ...string) AssetSet {
	s := make(AssetSet, len(codes))
	for _, c := range codes {
		s[strings.ToUpper(c)] = struct{}{}
	}
	return s
}

// LoadAssetSet indexes logo files in dir by basename without extension.
// "BAW.png" registers code BAW.
func LoadAssetSet(dir string) (AssetSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets directory: %w", err)
	}

	s := make(AssetSet, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		code := strings.TrimSuffix(name, filepath.Ext(name))
		if code != "" {
			s[strings.ToUpper(code)] = struct{}{}
		}
	}
	return s, nil
}

// HasAsset implements OperatorAssets.
func (s AssetSet) HasAsset(code string) bool {
	_, ok := s[strings.ToUpper(code)]
	return ok
}

// ResolveOperatorCode returns code when an asset exists for it, otherwise the
// placeholder. With nil assets every non-empty code is kept.
func ResolveOperatorCode(assets OperatorAssets, code *string) string {
	if code == nil {
		return OperatorPlaceholder
	}
	c := strings.TrimSpace(*code)
	if c == "" {
		return OperatorPlaceholder
	}
	if assets != nil && !assets.HasAsset(c) {
		return OperatorPlaceholder
	}
	return c
}
