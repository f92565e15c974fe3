// Package texset packages a texture set into a single zip archive: the
// source maps under suffixed names, a packed ORM texture, optional derived
// normal and GLB preview, and a manifest.
package texset

import (
	"errors"
	"fmt"
	"strings"

	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texture"
)

// DefaultName is used when a set has no name.
const DefaultName = "MyTextSet01"

var (
	// ErrInvalidSet is wrapped by every Set.Validate failure.
	ErrInvalidSet = errors.New("texset: invalid texture set")

	// ErrEmptySet is returned when a set has no files and no overrides.
	ErrEmptySet = errors.New("texset: texture set is empty")
)

// Overrides holds the constant ORM channel values.
type Overrides struct {
	AO        orm.Override
	Roughness orm.Override
	Metallic  orm.Override
}

// Set describes one texture set. Slot fields hold file paths; empty means
// the slot is absent.
type Set struct {
	Name     string
	Size     int
	UseGloss bool

	Albedo       string
	Normal       string
	Displacement string
	AO           string
	Roughness    string
	Metallic     string

	Overrides Overrides

	// DeriveNormal generates the normal map from the albedo when no normal
	// file is given.
	DeriveNormal bool
	NormalParams normalmap.Params

	// IncludePreview adds a GLB sphere wearing the set.
	IncludePreview bool
}

// FromIndex builds a set from a discovered directory. Size and the ORM
// options are left to the caller.
func FromIndex(name string, idx *texture.Index) Set {
	s := Set{Name: name, NormalParams: normalmap.DefaultParams()}
	for _, slot := range texture.Slots {
		if path, ok := idx.Path(slot); ok {
			s.SetPath(slot, path)
		}
	}
	return s
}

// Path returns the file assigned to slot.
func (s *Set) Path(slot texture.Slot) string {
	switch slot {
	case texture.SlotAlbedo:
		return s.Albedo
	case texture.SlotNormal:
		return s.Normal
	case texture.SlotDisplacement:
		return s.Displacement
	case texture.SlotAO:
		return s.AO
	case texture.SlotRoughness:
		return s.Roughness
	case texture.SlotMetallic:
		return s.Metallic
	}
	return ""
}

// SetPath assigns path to slot.
func (s *Set) SetPath(slot texture.Slot, path string) {
	switch slot {
	case texture.SlotAlbedo:
		s.Albedo = path
	case texture.SlotNormal:
		s.Normal = path
	case texture.SlotDisplacement:
		s.Displacement = path
	case texture.SlotAO:
		s.AO = path
	case texture.SlotRoughness:
		s.Roughness = path
	case texture.SlotMetallic:
		s.Metallic = path
	}
}

func (s *Set) ormPaths() orm.Paths {
	return orm.Paths{AO: s.AO, Roughness: s.Roughness, Metallic: s.Metallic}
}

func (s *Set) ormOptions() orm.Options {
	return orm.Options{
		Size:      s.Size,
		UseGloss:  s.UseGloss,
		AO:        s.Overrides.AO,
		Roughness: s.Overrides.Roughness,
		Metallic:  s.Overrides.Metallic,
	}
}

// HasORM reports whether the archive will contain an ORM texture. That takes
// at least one AO, roughness or metallic file; overrides alone only fill
// channels of an ORM that is being built anyway.
func (s *Set) HasORM() bool {
	return s.AO != "" || s.Roughness != "" || s.Metallic != ""
}

// Validate checks the name, the output size and every present slot's file
// extension.
func (s *Set) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSet)
	}
	if strings.ContainsAny(s.Name, `/\:`) || strings.Contains(s.Name, "..") {
		return fmt.Errorf("%w: name %q must not contain path separators", ErrInvalidSet, s.Name)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidSet, s.Size)
	}

	empty := true
	for _, slot := range texture.Slots {
		path := s.Path(slot)
		if path == "" {
			continue
		}
		empty = false
		if err := texture.ValidateExtension(path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSet, slot, err)
		}
	}
	if empty && !s.HasORM() {
		return ErrEmptySet
	}

	if s.DeriveNormal && s.Normal == "" && s.Albedo != "" {
		if err := s.NormalParams.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSet, err)
		}
	}
	return nil
}

// ArchiveName returns the zip file name for a set.
func ArchiveName(name string) string {
	return "T_" + name + ".zip"
}

// FileName returns the archive entry name for one slot, e.g.
// FileName("Rock", SlotAlbedo, "png") = "T_Rock_Albedo.png".
func FileName(name string, slot texture.Slot, ext string) string {
	return fmt.Sprintf("T_%s_%s.%s", name, slot, strings.ToLower(ext))
}
