package collision

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultGridCellSize is the side of a grid cell
	DefaultGridCellSize = 4.0
	// DefaultGridCells is the size of the cell hash table
	DefaultGridCells = 1024
	// maxCellsPerSkin is the number of cells above which a skin goes to the overflow list
	maxCellsPerSkin = 64
)

// cellKey is the integer coordinate of a cell in space
type cellKey struct {
	X, Y, Z int
}

type cell struct {
	skinIndices []int
}

type skinPair struct {
	a, b int
}

// Grid is a uniform grid hashed into a fixed number of cells. Skins covering too many
// cells (planes, large meshes) live in an overflow list tested against everything.
type Grid struct {
	detector

	// Workers is the number of goroutines looking for candidate pairs
	Workers int

	cellSize float64
	cells    []cell
	cellMask int

	skins    []*CollisionSkin
	overflow []int
	dirty    bool
}

// NewGrid creates a grid. numCells is rounded up to a power of two.
func NewGrid(registry *Registry, cellSize float64, numCells int) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultGridCellSize
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].skinIndices = make([]int, 0, 8)
	}

	return &Grid{
		detector: newDetector(registry),
		Workers:  1,
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (g *Grid) AddCollisionSkin(skin *CollisionSkin) {
	if skin.system == CollisionSystem(g) {
		return
	}
	attach(g, skin)
	g.skins = append(g.skins, skin)
	g.dirty = true
}

func (g *Grid) RemoveCollisionSkin(skin *CollisionSkin) bool {
	var ok bool
	if g.skins, ok = removeSkin(g.skins, skin); ok {
		skin.system = nil
		g.dirty = true
	}
	return ok
}

func (g *Grid) CollisionSkinMoved(*CollisionSkin) {
	g.dirty = true
}

func (g *Grid) Skins() []*CollisionSkin {
	return g.skins
}

// rebuild inserts every skin in the cells it covers
func (g *Grid) rebuild() {
	if !g.dirty {
		return
	}

	for i := range g.cells {
		g.cells[i].skinIndices = g.cells[i].skinIndices[:0]
	}
	g.overflow = g.overflow[:0]

	for idx, skin := range g.skins {
		box := skin.worldBox
		if box.IsEmpty() {
			continue
		}

		minCell, maxCell, ok := g.cellRange(box)
		if !ok {
			g.overflow = append(g.overflow, idx)
			continue
		}

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					c := &g.cells[g.hashCell(cellKey{x, y, z})]
					// a skin may hash twice to the same cell
					if n := len(c.skinIndices); n == 0 || c.skinIndices[n-1] != idx {
						c.skinIndices = append(c.skinIndices, idx)
					}
				}
			}
		}
	}
	g.dirty = false
}

// cellRange returns the cells covered by box, or false when there are too many of them
func (g *Grid) cellRange(box geom.AABB) (cellKey, cellKey, bool) {
	extents := box.Extents().Mul(1 / g.cellSize)
	count := (extents.X() + 1) * (extents.Y() + 1) * (extents.Z() + 1)
	if math.IsInf(count, 0) || math.IsNaN(count) || count > maxCellsPerSkin {
		return cellKey{}, cellKey{}, false
	}
	return g.worldToCell(box.Min), g.worldToCell(box.Max), true
}

func (g *Grid) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

func (g *Grid) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}

// candidates appends to out the indices above idx sharing a cell with skin idx, each once.
// seen is a per-caller stamp buffer, stamp must differ between calls.
func (g *Grid) candidates(idx int, isOverflow bool, seen []int, stamp int, out []int) []int {
	visit := func(other int) {
		if other <= idx || seen[other] == stamp {
			return
		}
		seen[other] = stamp
		out = append(out, other)
	}

	if isOverflow {
		for other := range g.skins {
			visit(other)
		}
		return out
	}

	for _, other := range g.overflow {
		visit(other)
	}

	minCell, maxCell, _ := g.cellRange(g.skins[idx].worldBox)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				for _, other := range g.cells[g.hashCell(cellKey{x, y, z})].skinIndices {
					visit(other)
				}
			}
		}
	}
	return out
}

// findPairs returns the index pairs whose boxes overlap, sorted. The search is split
// across Workers goroutines.
func (g *Grid) findPairs() []skinPair {
	g.rebuild()

	isOverflow := make([]bool, len(g.skins))
	for _, idx := range g.overflow {
		isOverflow[idx] = true
	}

	workers := max(1, g.Workers)
	chunk := (len(g.skins) + workers - 1) / workers
	results := make([][]skinPair, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start, end := w*chunk, min((w+1)*chunk, len(g.skins))
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()

			seen := make([]int, len(g.skins))
			var found []int
			for idx := start; idx < end; idx++ {
				box := g.skins[idx].worldBox
				if box.IsEmpty() {
					continue
				}
				found = g.candidates(idx, isOverflow[idx], seen, idx+1, found[:0])
				for _, other := range found {
					if box.Overlaps(g.skins[other].worldBox) {
						results[w] = append(results[w], skinPair{idx, other})
					}
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	var pairs []skinPair
	for _, r := range results {
		pairs = append(pairs, r...)
	}
	slices.SortFunc(pairs, func(p, q skinPair) int {
		if c := cmp.Compare(p.a, q.a); c != 0 {
			return c
		}
		return cmp.Compare(p.b, q.b)
	})
	return pairs
}

func (g *Grid) DetectCollisions(body *actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	skin := bodySkin(body)
	if skin == nil {
		return
	}
	for _, other := range g.skins {
		if skin.worldBox.Overlaps(other.worldBox) && shouldTest(skin, other, pred) {
			g.detectPair(skin, other, notifier, tolerance)
		}
	}
}

func (g *Grid) DetectAllCollisions(bodies []*actor.RigidBody, notifier CollisionNotifier, pred PairPredicate, tolerance float64) {
	g.setQueried(bodies)
	for _, p := range g.findPairs() {
		s0, s1 := g.skins[p.a], g.skins[p.b]
		if g.isQueried(s0, s1) && shouldTest(s0, s1, pred) {
			g.detectPair(s0, s1, notifier, tolerance)
		}
	}
}

// SegmentIntersect tests every skin: walking the cells along the segment is not worth it
// for the short picking rays it serves
func (g *Grid) SegmentIntersect(seg geom.Segment, pred SkinPredicate) (SegmentResult, bool, error) {
	return closestSegmentHit(g.skins, seg, pred)
}
