package geom

import "slices"

const (
	// DefaultMaxTrianglesPerCell stops the octree subdivision
	DefaultMaxTrianglesPerCell = 16
	// DefaultMinCellSize is the smallest octree cell edge
	DefaultMinCellSize = 0.5
	maxOctreeDepth     = 12
)

type octreeNode struct {
	bounds    AABB
	children  []*octreeNode
	triangles []int
}

// Octree indexes triangles by their bounding boxes.
// A triangle straddling several cells is stored in each of them; queries return each index once.
type Octree struct {
	root  *octreeNode
	boxes []AABB
}

// NewOctree builds an octree over triangles
func NewOctree(triangles []Triangle, maxTrianglesPerCell int, minCellSize float64) *Octree {
	if maxTrianglesPerCell <= 0 {
		maxTrianglesPerCell = DefaultMaxTrianglesPerCell
	}
	if minCellSize <= 0 {
		minCellSize = DefaultMinCellSize
	}

	o := &Octree{boxes: make([]AABB, len(triangles))}
	bounds := EmptyAABB()
	indices := make([]int, len(triangles))
	for i, tri := range triangles {
		o.boxes[i] = tri.BoundingBox()
		bounds.AddAABB(o.boxes[i])
		indices[i] = i
	}

	o.root = o.build(bounds, indices, maxTrianglesPerCell, minCellSize, 0)
	return o
}

func (o *Octree) build(bounds AABB, indices []int, maxPerCell int, minSize float64, depth int) *octreeNode {
	node := &octreeNode{bounds: bounds}

	extents := bounds.Extents()
	largest := max(extents.X(), extents.Y(), extents.Z())
	if len(indices) <= maxPerCell || depth >= maxOctreeDepth || largest < minSize {
		node.triangles = indices
		return node
	}

	centre := bounds.Center()
	for i := 0; i < 8; i++ {
		child := AABB{Min: bounds.Min, Max: centre}
		if i&1 != 0 {
			child.Min[0], child.Max[0] = centre.X(), bounds.Max.X()
		}
		if i&2 != 0 {
			child.Min[1], child.Max[1] = centre.Y(), bounds.Max.Y()
		}
		if i&4 != 0 {
			child.Min[2], child.Max[2] = centre.Z(), bounds.Max.Z()
		}

		var inside []int
		for _, idx := range indices {
			if o.boxes[idx].Overlaps(child) {
				inside = append(inside, idx)
			}
		}
		if len(inside) > 0 {
			node.children = append(node.children, o.build(child, inside, maxPerCell, minSize, depth+1))
		}
	}

	return node
}

// Bounds returns the box enclosing every indexed triangle
func (o *Octree) Bounds() AABB {
	if o.root == nil {
		return EmptyAABB()
	}
	return o.root.bounds
}

// Query appends to out the indices of the triangles whose box overlaps box
func (o *Octree) Query(box AABB, out []int) []int {
	if o.root == nil {
		return out
	}

	start := len(out)
	stack := []*octreeNode{o.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.bounds.Overlaps(box) {
			continue
		}
		for _, idx := range node.triangles {
			if o.boxes[idx].Overlaps(box) {
				out = append(out, idx)
			}
		}
		stack = append(stack, node.children...)
	}

	found := out[start:]
	slices.Sort(found)
	found = slices.Compact(found)
	return out[:start+len(found)]
}
