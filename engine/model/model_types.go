package model

import (
	"fmt"
	"strings"
)

// Type is a presentation model archetype.
type Type int

const (
	TypeEmblem Type = iota
	TypePlanet
	TypeParasite
	TypeTerrain
)

var typeNames = map[Type]string{
	TypeEmblem:   "emblem",
	TypePlanet:   "planet",
	TypeParasite: "parasite",
	TypeTerrain:  "terrain",
}

var descriptions = map[Type]string{
	TypeEmblem:   "A slowly turning ring of brushed metal, the emblem of the expedition, catches the light of a distant star.",
	TypePlanet:   "A pale blue planet hangs in the dark, its surface wrapped in thin bands of cloud.",
	TypeParasite: "Something spined and restless pulses in the dark, a living shape that does not belong here.",
	TypeTerrain:  "Below stretches an alien landscape of low ridges and shallow valleys, silent and waiting.",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Types returns every known archetype in declaration order.
func Types() []Type {
	return []Type{TypeEmblem, TypePlanet, TypeParasite, TypeTerrain}
}

// ParseType resolves an archetype from its name, ignoring case.
//
// Parameters:
//   - name: the archetype name, e.g. "planet"
//
// Returns:
//   - Type: the archetype
//   - error: a KindNotFound *Error for unknown names
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, NewError(KindNotFound, "parse type", fmt.Errorf("unknown model type %q", name))
}

// Describe returns the text shown in place of the model when it cannot be rendered.
func Describe(t Type) string {
	if d, ok := descriptions[t]; ok {
		return d
	}
	return "The scene continues in words alone."
}
