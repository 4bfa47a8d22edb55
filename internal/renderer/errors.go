package renderer

import "errors"

// Sentinel errors returned by the engine.
var (
	// ErrNilRasterizer is returned when no rasterizer is supplied.
	ErrNilRasterizer = errors.New("nil rasterizer")

	// ErrNoCellSize is returned when the rasterizer cannot report a cell
	// size and none was configured.
	ErrNoCellSize = errors.New("cell size unknown: rasterizer is not a Sizer and no cell size was set")

	// ErrInvalidCellSize is returned for non-positive cell dimensions.
	ErrInvalidCellSize = errors.New("invalid cell size")

	// ErrOutOfBounds is returned by Draw for changes outside the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
)
