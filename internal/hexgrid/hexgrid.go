// Package hexgrid wraps the H3 discrete global grid behind the two fixed
// resolutions the tracker uses. All functions are pure and deterministic;
// errors only occur for malformed input, never for valid coordinates.
package hexgrid

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Sentinel errors for malformed input.
var (
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// CellForPoint maps a coordinate to the enclosing cell at the given level.
func CellForPoint(lat, lng float64, level domain.CellLevel) (string, error) {
	if lat < -90 || lat > 90 {
		return "", fmt.Errorf("latitude %v: %w", lat, ErrInvalidCoordinate)
	}
	if lng < -180 || lng > 180 {
		return "", fmt.Errorf("longitude %v: %w", lng, ErrInvalidCoordinate)
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lng), int(level))
	if err != nil {
		return "", fmt.Errorf("lat/lng to cell: %w", err)
	}
	return cell.String(), nil
}

// ParentCell returns the unique ancestor of cellID at the coarser level.
func ParentCell(cellID string, level domain.CellLevel) (string, error) {
	cell, err := parse(cellID)
	if err != nil {
		return "", err
	}
	if cell.Resolution() < int(level) {
		return "", fmt.Errorf("cell %s is coarser than level %d: %w", cellID, level, ErrInvalidCell)
	}

	parent, err := cell.Parent(int(level))
	if err != nil {
		return "", fmt.Errorf("parent of %s: %w", cellID, err)
	}
	return parent.String(), nil
}

// RingNeighbors returns the cells at grid distance exactly ring from cellID.
// For ring 1 on a regular hexagon this is the six adjacent cells (five
// around a pentagon).
func RingNeighbors(cellID string, ring int) (map[string]struct{}, error) {
	cell, err := parse(cellID)
	if err != nil {
		return nil, err
	}

	rings, err := cell.GridDiskDistances(ring)
	if err != nil {
		return nil, fmt.Errorf("grid ring %d of %s: %w", ring, cellID, err)
	}
	if len(rings) <= ring {
		return map[string]struct{}{}, nil
	}

	out := make(map[string]struct{}, len(rings[ring]))
	for _, c := range rings[ring] {
		out[c.String()] = struct{}{}
	}
	return out, nil
}

// CenterPoint returns the representative coordinate of a cell, used for
// geocoding coarse cells that no raw sample mapped onto directly.
func CenterPoint(cellID string) (lat, lng float64, err error) {
	cell, err := parse(cellID)
	if err != nil {
		return 0, 0, err
	}

	ll, err := cell.LatLng()
	if err != nil {
		return 0, 0, fmt.Errorf("center of %s: %w", cellID, err)
	}
	return ll.Lat, ll.Lng, nil
}

// IsCellAtLevel reports whether cellID is a well-formed cell at the level.
func IsCellAtLevel(cellID string, level domain.CellLevel) bool {
	cell, err := parse(cellID)
	if err != nil {
		return false
	}
	return cell.Resolution() == int(level)
}

func parse(cellID string) (h3.Cell, error) {
	cell := h3.Cell(h3.IndexFromString(cellID))
	if cellID == "" || !cell.IsValid() {
		return 0, fmt.Errorf("%q: %w", cellID, ErrInvalidCell)
	}
	return cell, nil
}
