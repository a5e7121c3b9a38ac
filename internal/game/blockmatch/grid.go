// Package blockmatch implements the falling-block number matching puzzle:
// pick cells whose values add up to the target before the stack reaches
// the top.
package blockmatch

import "sort"

const (
	// Cols is the grid width.
	Cols = 5
	// Rows is the visible height; a cell at Rows or above ends the game.
	Rows = 8
	// StartRows is the number of rows a new game starts with.
	StartRows = 3
	// FallbackTarget is used when the grid is too small to derive a sum.
	FallbackTarget = 10
)

// Rand is the random source the engine draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Block is one numbered cell. Row 0 is the bottom of the grid.
type Block struct {
	ID    int `json:"id"`
	Value int `json:"value"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

// GenerateRow returns Cols new cells for rowIndex with ids starting at idStart.
func GenerateRow(rowIndex, idStart int, rng Rand) []Block {
	row := make([]Block, 0, Cols)
	for c := 0; c < Cols; c++ {
		row = append(row, Block{
			ID:    idStart + c,
			Value: rng.IntN(9) + 1,
			Row:   rowIndex,
			Col:   c,
		})
	}
	return row
}

// PickTarget sums 2 to 4 distinct random cells of grid, so the returned
// target always has a solution at the time it is picked.
func PickTarget(grid []Block, rng Rand) int {
	if len(grid) < 2 {
		return FallbackTarget
	}
	count := rng.IntN(3) + 2
	if count > len(grid) {
		count = len(grid)
	}
	idx := make([]int, len(grid))
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates: the first count slots end up a uniform sample
	sum := 0
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		sum += grid[idx[i]].Value
	}
	return sum
}

// Gravity repacks every column downward starting at row 0, keeping the
// relative order of cells within a column. The result is ordered by column
// then row.
func Gravity(grid []Block) []Block {
	out := make([]Block, 0, len(grid))
	for c := 0; c < Cols; c++ {
		var col []Block
		for _, b := range grid {
			if b.Col == c {
				col = append(col, b)
			}
		}
		sort.SliceStable(col, func(i, j int) bool { return col[i].Row < col[j].Row })
		for i, b := range col {
			b.Row = i
			out = append(out, b)
		}
	}
	return out
}

// shiftUp moves every cell one row higher and reports whether any cell
// left the visible grid.
func shiftUp(grid []Block) ([]Block, bool) {
	out := make([]Block, len(grid))
	overflow := false
	for i, b := range grid {
		b.Row++
		if b.Row >= Rows {
			overflow = true
		}
		out[i] = b
	}
	return out, overflow
}
