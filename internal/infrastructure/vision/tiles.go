package vision

import (
	"errors"
	"fmt"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/policy"
)

// ErrTooSmallForGrid изображение меньше минимальной сетки.
var ErrTooSmallForGrid = errors.New("image too small for tile grid")

// gridLayout размеры сетки плиток.
type gridLayout struct {
	nx, ny       int
	tileW, tileH int
}

// layoutGrid выбирает размер плитки: max(MinTileSize, min(w,h)/TileDivisor),
// но не меньше MinGrid плиток по каждой оси. Остаток от деления на плитки
// не отбрасывается: TileGrid.TileRect растягивает плитки на всё изображение.
func layoutGrid(w, h int, t policy.Thresholds) (gridLayout, error) {
	minGrid := t.MinGrid
	if minGrid < 4 {
		minGrid = 4
	}
	if w < minGrid || h < minGrid {
		return gridLayout{}, fmt.Errorf("%w: %dx%d", ErrTooSmallForGrid, w, h)
	}

	tile := t.MinTileSize
	if t.TileDivisor > 0 {
		if s := minInt(w, h) / t.TileDivisor; s > tile {
			tile = s
		}
	}
	if tile < 1 {
		tile = 1
	}

	l := gridLayout{nx: w / tile, ny: h / tile, tileW: tile, tileH: tile}
	if l.nx < minGrid {
		l.nx = minGrid
		l.tileW = w / minGrid
	}
	if l.ny < minGrid {
		l.ny = minGrid
		l.tileH = h / minGrid
	}
	return l, nil
}

// buildTileGrid считает для каждой плитки дисперсию лапласиана и долю краевых пикселей.
// lap отклик лапласиана на пиксель, edges маска краёв (ненулевое значение = край).
func buildTileGrid(lap []float64, edges []uint8, w, h int, t policy.Thresholds) (entity.TileGrid, error) {
	if len(lap) != w*h || len(edges) != w*h {
		return entity.TileGrid{}, fmt.Errorf("plane size mismatch: lap=%d edges=%d want=%d", len(lap), len(edges), w*h)
	}
	l, err := layoutGrid(w, h, t)
	if err != nil {
		return entity.TileGrid{}, err
	}

	g := entity.TileGrid{
		NX:          l.nx,
		NY:          l.ny,
		Width:       w,
		Height:      h,
		TileW:       l.tileW,
		TileH:       l.tileH,
		RemainderX:  w - l.nx*l.tileW,
		RemainderY:  h - l.ny*l.tileH,
		LapVar:      make([]float64, l.nx*l.ny),
		EdgeDensity: make([]float64, l.nx*l.ny),
	}

	for i := range g.LapVar {
		r := g.TileRect(i)
		area := float64(r.Dx() * r.Dy())
		var sum, sumSq float64
		edgeCount := 0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := y * w
			for x := r.Min.X; x < r.Max.X; x++ {
				v := lap[row+x]
				sum += v
				sumSq += v * v
				if edges[row+x] != 0 {
					edgeCount++
				}
			}
		}
		mean := sum / area
		variance := sumSq/area - mean*mean
		if variance < 0 {
			variance = 0
		}
		g.LapVar[i] = variance
		g.EdgeDensity[i] = float64(edgeCount) / area
	}
	return g, nil
}

// tileMeans средние значения плоскости по плиткам той же сетки.
func tileMeans(plane []float64, w int, g entity.TileGrid) []float64 {
	out := make([]float64, g.Len())
	for i := range out {
		r := g.TileRect(i)
		area := float64(r.Dx() * r.Dy())
		var sum float64
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := y * w
			for x := r.Min.X; x < r.Max.X; x++ {
				sum += plane[row+x]
			}
		}
		out[i] = sum / area
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
