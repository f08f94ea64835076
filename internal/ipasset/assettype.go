package ipasset

import (
	"fmt"
	"strings"
)

// AssetType is the on-chain ordinal of an IP asset type. Zero is reserved for
// undefined.
type AssetType uint8

const (
	AssetTypeStory AssetType = iota + 1
	AssetTypeCharacter
	AssetTypeArt
	AssetTypeGroup
	AssetTypeLocation
	AssetTypeItem
)

var assetTypeNames = map[AssetType]string{
	AssetTypeStory:     "STORY",
	AssetTypeCharacter: "CHARACTER",
	AssetTypeArt:       "ART",
	AssetTypeGroup:     "GROUP",
	AssetTypeLocation:  "LOCATION",
	AssetTypeItem:      "ITEM",
}

// ParseAssetType accepts a type name in any case.
func ParseAssetType(s string) (AssetType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range assetTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown ip asset type '%s', expected one of STORY, CHARACTER, ART, GROUP, LOCATION or ITEM", s)
}

func (t AssetType) String() string {
	if name, ok := assetTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AssetType(%d)", uint8(t))
}
