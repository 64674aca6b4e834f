package models

import (
	"fmt"
	"strings"
)

// Surface is the court surface a match was played on
type Surface string

const (
	SurfaceHard  Surface = "hard"
	SurfaceClay  Surface = "clay"
	SurfaceGrass Surface = "grass"
)

// Surfaces lists every surface that carries its own rating track
var Surfaces = []Surface{SurfaceHard, SurfaceClay, SurfaceGrass}

var surfaceAliases = map[string]Surface{
	"hard":         SurfaceHard,
	"hard court":   SurfaceHard,
	"hardcourt":    SurfaceHard,
	"indoor hard":  SurfaceHard,
	"outdoor hard": SurfaceHard,
	"indoor":       SurfaceHard,
	"clay":         SurfaceClay,
	"clay court":   SurfaceClay,
	"red clay":     SurfaceClay,
	"grass":        SurfaceGrass,
	"grass court":  SurfaceGrass,
}

// Valid reports whether s is one of the rated surfaces
func (s Surface) Valid() bool {
	switch s {
	case SurfaceHard, SurfaceClay, SurfaceGrass:
		return true
	}
	return false
}

func (s Surface) String() string {
	return string(s)
}

// ParseSurface maps vendor surface labels onto a rated surface.
// Labels are matched case-insensitively after collapsing whitespace.
func ParseSurface(raw string) (Surface, error) {
	label := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if s, ok := surfaceAliases[label]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSurface, raw)
}

// Tour identifies the professional tour a match belongs to
type Tour string

const (
	TourATP Tour = "atp"
	TourWTA Tour = "wta"
)

// ParseTour parses "atp" or "wta" in any case
func ParseTour(raw string) (Tour, error) {
	switch Tour(strings.ToLower(strings.TrimSpace(raw))) {
	case TourATP:
		return TourATP, nil
	case TourWTA:
		return TourWTA, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTour, raw)
}
