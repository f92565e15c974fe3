package texture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Slot names one member of a texture set.
type Slot string

const (
	SlotAlbedo       Slot = "Albedo"
	SlotNormal       Slot = "Normal"
	SlotDisplacement Slot = "Displacement"
	SlotAO           Slot = "AO"
	SlotRoughness    Slot = "Roughness"
	SlotMetallic     Slot = "Metallic"
)

// Slots lists every input slot in archive order.
var Slots = []Slot{SlotAlbedo, SlotNormal, SlotDisplacement, SlotAO, SlotRoughness, SlotMetallic}

// Within one token the first slot listed wins.
var slotKeywords = []struct {
	slot     Slot
	keywords []string
}{
	{SlotAO, []string{"ao", "occ", "occlusion", "ambientocclusion"}},
	{SlotRoughness, []string{"roughness", "rough", "rgh"}},
	{SlotMetallic, []string{"metallic", "metalness", "metal", "met"}},
	{SlotNormal, []string{"normal", "normalgl", "normaldx", "nrm", "nor", "norm"}},
	{SlotDisplacement, []string{"displacement", "disp", "height", "bump"}},
	{SlotAlbedo, []string{"albedo", "basecolor", "diffuse", "diff", "color", "col"}},
}

// Index maps texture slots to filesystem paths for one set directory.
type Index struct {
	dir     string
	entries map[Slot]string
}

// Classify guesses the slot of a texture from its file name, e.g.
// "rock_wall_Roughness_2k.png" → SlotRoughness.
func Classify(name string) (Slot, bool) {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	tokens := strings.FieldsFunc(stem, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	compact := strings.Join(tokens, "")

	// Suffix convention: the last recognised token names the slot, so
	// "Metal_Plate_Normal" is a normal map, not a metallic one.
	for i := len(tokens) - 1; i >= 0; i-- {
		for _, sk := range slotKeywords {
			for _, kw := range sk.keywords {
				if tokens[i] == kw {
					return sk.slot, true
				}
			}
		}
	}

	// Long keywords also match glued names like "RockBaseColor"
	for _, sk := range slotKeywords {
		for _, kw := range sk.keywords {
			if len(kw) >= 5 && strings.HasSuffix(compact, kw) {
				return sk.slot, true
			}
		}
	}
	return "", false
}

// DiscoverSet scans dir (not recursively) for texture files and assigns each
// to a slot. When several files claim a slot the shortest name wins.
func DiscoverSet(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("texture: scan %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || ValidateExtension(e.Name()) != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	idx := &Index{dir: dir, entries: make(map[Slot]string)}
	for _, name := range names {
		slot, ok := Classify(name)
		if !ok {
			continue
		}
		if _, exists := idx.entries[slot]; !exists {
			idx.entries[slot] = filepath.Join(dir, name)
		}
	}

	return idx, nil
}

// Dir returns the scanned directory.
func (idx *Index) Dir() string {
	return idx.dir
}

// Path returns the file assigned to slot, or ("", false).
func (idx *Index) Path(slot Slot) (string, bool) {
	path, ok := idx.entries[slot]
	return path, ok
}

// Len returns the number of assigned slots.
func (idx *Index) Len() int {
	return len(idx.entries)
}
