package pipeline

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ExtractKeyValues walks blocks and rebuilds the form key/value pairs.
//
// Every KEY_VALUE_SET block tagged KEY contributes one entry. The value comes
// from the first relationship on the block, whatever its type, and the first
// id in that relationship. Missing text, edges or targets all resolve to "".
// Blocks are visited in input order, so a repeated key keeps the value of its
// last occurrence.
func ExtractKeyValues(blocks []Block) *Mapping {
	byID := make(map[string]*Block, len(blocks))
	for i := range blocks {
		// first block wins when ids repeat, matching a front-to-back scan
		if _, ok := byID[blocks[i].ID]; !ok {
			byID[blocks[i].ID] = &blocks[i]
		}
	}

	mapping := NewMapping()
	for i := range blocks {
		b := &blocks[i]
		if !isKeyBlock(b) {
			continue
		}

		key := strings.TrimSpace(b.Text)
		value := ""
		if target, ok := firstTarget(b); ok {
			if vb, found := byID[target]; found {
				value = strings.TrimSpace(vb.Text)
			}
		}
		mapping.Set(key, value)
	}
	return mapping
}

func isKeyBlock(b *Block) bool {
	if b.BlockType != BlockTypeKeyValueSet || len(b.EntityTypes) == 0 {
		return false
	}
	return mapset.NewSet(b.EntityTypes...).Contains(EntityTypeKey)
}

// firstTarget returns the first id of the block's first relationship.
func firstTarget(b *Block) (string, bool) {
	if len(b.Relationships) == 0 || len(b.Relationships[0].IDs) == 0 {
		return "", false
	}
	return b.Relationships[0].IDs[0], true
}
