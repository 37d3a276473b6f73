package canonical

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

var abcd = bigraph.MustSignature(
	bigraph.Control{Name: "A", Arity: 0},
	bigraph.Control{Name: "B", Arity: 0},
	bigraph.Control{Name: "C", Arity: 0},
	bigraph.Control{Name: "D", Arity: 0},
	bigraph.Control{Name: "P", Arity: 1},
	bigraph.Control{Name: "Q", Arity: 2},
)

func TestEncodeSiblingOrderInvariance(t *testing.T) {
	// A{B{C}, B{D,C}}
	bd := bigraph.NewBuilder(abcd)
	a := bd.Node(bd.Root(), "A")
	b1 := bd.Node(a, "B")
	bd.Node(b1, "C")
	b2 := bd.Node(a, "B")
	bd.Node(b2, "D")
	bd.Node(b2, "C")
	first := bd.MustBuild()

	// A{B{C,D}, B{C}}
	bd = bigraph.NewBuilder(abcd)
	a = bd.Node(bd.Root(), "A")
	b2 = bd.Node(a, "B")
	bd.Node(b2, "C")
	bd.Node(b2, "D")
	b1 = bd.Node(a, "B")
	bd.Node(b1, "C")
	second := bd.MustBuild()

	enc := NewEncoder()
	f1, f2 := enc.Encode(first), enc.Encode(second)
	if f1 != f2 {
		t.Errorf("isomorphic builds differ:\n%s\n%s", f1, f2)
	}
	if again := enc.Encode(first); again != f1 {
		t.Errorf("Encode is not idempotent: %s vs %s", again, f1)
	}
}

func TestEncodeEdgeRenamingInvariance(t *testing.T) {
	build := func(e1, e2 string, swap bool) *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		r := bd.Root()
		if swap {
			bd.Node(r, "Q", e2, e1)
			bd.Node(r, "P", e1)
			bd.Node(r, "P", e2)
		} else {
			bd.Node(r, "P", e1)
			bd.Node(r, "P", e2)
			bd.Node(r, "Q", e2, e1)
		}
		bd.Edge(e1, e2)
		return bd.MustBuild()
	}

	enc := NewEncoder()
	f1 := enc.Encode(build("x", "y", false))
	f2 := enc.Encode(build("left", "right", true))
	if f1 != f2 {
		t.Errorf("edge renaming changed the form:\n%s\n%s", f1, f2)
	}
}

func TestEncodeDistinguishesStructure(t *testing.T) {
	enc := NewEncoder()

	nested := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		a := bd.Node(bd.Root(), "A")
		bd.Node(a, "B")
		return bd.MustBuild()
	}()
	flat := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		r := bd.Root()
		bd.Node(r, "A")
		bd.Node(r, "B")
		return bd.MustBuild()
	}()
	if enc.Encode(nested) == enc.Encode(flat) {
		t.Error("nesting must be visible in the canonical form")
	}

	// Same places, different wiring: P-P share an edge vs. separate edges.
	shared := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		r := bd.Root()
		bd.Node(r, "P", "e")
		bd.Node(r, "P", "e")
		bd.Edge("e")
		return bd.MustBuild()
	}()
	apart := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		r := bd.Root()
		bd.Node(r, "P", "e")
		bd.Node(r, "P", "f")
		bd.Edge("e", "f")
		return bd.MustBuild()
	}()
	if enc.Encode(shared) == enc.Encode(apart) {
		t.Error("link connectivity must be visible in the canonical form")
	}

	// Outer names are part of the interface and keep their names.
	openX := func(name string) *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		bd.Node(bd.Root(), "P", name)
		return bd.MustBuild()
	}
	if enc.Encode(openX("x")) == enc.Encode(openX("y")) {
		t.Error("outer names must be kept by name")
	}
}

// rings adds one Q node per name under parent, wiring each node's second
// port to the next node's first so the nodes form a directed ring.
func rings(bd *bigraph.Builder, parent *bigraph.Place, order []int, groups ...[]string) {
	type pair struct{ in, out string }
	var nodes []pair
	for _, names := range groups {
		for i := range names {
			nodes = append(nodes, pair{names[i], names[(i+1)%len(names)]})
		}
	}
	for _, i := range order {
		bd.Node(parent, "Q", nodes[i].in, nodes[i].out)
	}
}

func TestEncodeLinkedTiedSiblings(t *testing.T) {
	enc := NewEncoder()

	// a self loop, a 3-ring and a 2-ring; colour refinement gives every
	// node the same colour
	build := func(order []int, prefix string) *bigraph.Bigraph {
		n := func(s string) string { return prefix + s }
		bd := bigraph.NewBuilder(abcd)
		rings(bd, bd.Root(), order,
			[]string{n("a")},
			[]string{n("b"), n("c"), n("d")},
			[]string{n("e"), n("f")})
		bd.Edge(n("a"), n("b"), n("c"), n("d"), n("e"), n("f"))
		return bd.MustBuild()
	}
	base := enc.Encode(build([]int{0, 1, 2, 3, 4, 5}, "x"))
	for _, order := range [][]int{
		{5, 4, 3, 2, 1, 0},
		{4, 1, 5, 0, 3, 2},
		{2, 0, 4, 3, 1, 5},
		{0, 3, 1, 5, 2, 4},
	} {
		if got := enc.Encode(build(order, "y")); got != base {
			t.Errorf("order %v encodes differently:\n%s\n%s", order, base, got)
		}
	}

	sixRing := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		rings(bd, bd.Root(), []int{0, 1, 2, 3, 4, 5}, []string{"a", "b", "c", "d", "e", "f"})
		bd.Edge("a", "b", "c", "d", "e", "f")
		return bd.MustBuild()
	}()
	twoTriangles := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		rings(bd, bd.Root(), []int{0, 3, 1, 4, 2, 5}, []string{"a", "b", "c"}, []string{"d", "e", "f"})
		bd.Edge("a", "b", "c", "d", "e", "f")
		return bd.MustBuild()
	}()
	if enc.Encode(sixRing) == enc.Encode(twoTriangles) {
		t.Error("a 6-ring and two 3-rings must not share a form")
	}
}

func TestEncodeManySiblingsOnSharedEdges(t *testing.T) {
	// 24 P siblings, half on one closed edge and half on another
	build := func(permSeed int64) *bigraph.Bigraph {
		perm := rand.New(rand.NewSource(permSeed))
		h, g := fmt.Sprintf("h%d", permSeed), fmt.Sprintf("g%d", permSeed)
		bd := bigraph.NewBuilder(abcd)
		root := bd.Root()
		for _, i := range perm.Perm(24) {
			if i%2 == 0 {
				bd.Node(root, "P", h)
			} else {
				bd.Node(root, "P", g)
			}
		}
		bd.Edge(h, g)
		return bd.MustBuild()
	}

	enc := NewEncoder()
	base := enc.Encode(build(1))
	for seed := int64(2); seed < 6; seed++ {
		if got := enc.Encode(build(seed)); got != base {
			t.Errorf("seed %d encodes differently:\n%s\n%s", seed, base, got)
		}
	}
}

// pairedSiblings puts 2..7 Q nodes under one root and pairs all their ports
// into closed edges. permSeed shuffles the siblings and renames the edges.
func pairedSiblings(seed, permSeed int64) *bigraph.Bigraph {
	shape := rand.New(rand.NewSource(seed))
	perm := rand.New(rand.NewSource(permSeed))

	n := 2 + shape.Intn(6)
	edgeOf := make([]int, 2*n)
	for k, slot := range shape.Perm(2 * n) {
		edgeOf[slot] = k / 2
	}
	name := func(k int) string { return fmt.Sprintf("w%d-%d", permSeed, k) }

	bd := bigraph.NewBuilder(abcd)
	root := bd.Root()
	for _, i := range perm.Perm(n) {
		bd.Node(root, "Q", name(edgeOf[2*i]), name(edgeOf[2*i+1]))
	}
	names := make([]string, n)
	for k := range names {
		names[k] = name(k)
	}
	bd.Edge(names...)
	return bd.MustBuild()
}

func TestEncodePairedSiblingsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	enc := NewEncoder()

	properties.Property("shuffled linked siblings encode equally", prop.ForAll(
		func(seed, p1, p2 int64) bool {
			return enc.Encode(pairedSiblings(seed, p1)) == enc.Encode(pairedSiblings(seed, p2))
		},
		gen.Int64Range(0, 1<<40),
		gen.Int64Range(0, 1<<40),
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint("abc") != Fingerprint("abc") {
		t.Error("Fingerprint is not deterministic")
	}
	if Fingerprint("abc") == Fingerprint("abd") {
		t.Error("Fingerprint collided on different inputs")
	}
	if len(Fingerprint("x")) != 12 {
		t.Errorf("Fingerprint length = %d, want 12", len(Fingerprint("x")))
	}
}

// randomTree builds a random bigraph from seed. Children are emitted in the
// order chosen by perm, so two calls with the same seed and different perm
// seeds yield isomorphic bigraphs with shuffled siblings and renamed edges.
func randomTree(seed, permSeed int64) *bigraph.Bigraph {
	shape := rand.New(rand.NewSource(seed))
	perm := rand.New(rand.NewSource(permSeed))

	type sketch struct {
		control string
		link    int
		kids    []*sketch
	}
	controls := []string{"A", "B", "C", "D", "P"}
	var grow func(depth int) *sketch
	grow = func(depth int) *sketch {
		s := &sketch{control: controls[shape.Intn(len(controls))], link: shape.Intn(3)}
		if depth < 3 {
			n := shape.Intn(3)
			for i := 0; i < n; i++ {
				s.kids = append(s.kids, grow(depth+1))
			}
		}
		return s
	}
	var top []*sketch
	for i, n := 0, 1+shape.Intn(3); i < n; i++ {
		top = append(top, grow(0))
	}

	edgeName := func(i int) string { return fmt.Sprintf("edge-%d-%d", permSeed, i) }
	bd := bigraph.NewBuilder(abcd)
	var emit func(parent *bigraph.Place, sketches []*sketch)
	emit = func(parent *bigraph.Place, sketches []*sketch) {
		order := perm.Perm(len(sketches))
		for _, i := range order {
			s := sketches[i]
			var n *bigraph.Place
			if s.control == "P" {
				n = bd.Node(parent, "P", edgeName(s.link))
			} else {
				n = bd.Node(parent, s.control)
			}
			emit(n, s.kids)
		}
	}
	emit(bd.Root(), top)
	bd.Edge(edgeName(0), edgeName(1), edgeName(2))
	return bd.MustBuild()
}

func TestEncodeDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	enc := NewEncoder()

	properties.Property("shuffled siblings and renamed edges encode equally", prop.ForAll(
		func(seed, p1, p2 int64) bool {
			return enc.Encode(randomTree(seed, p1)) == enc.Encode(randomTree(seed, p2))
		},
		gen.Int64Range(0, 1<<40),
		gen.Int64Range(0, 1<<40),
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("encode is idempotent", prop.ForAll(
		func(seed int64) bool {
			b := randomTree(seed, seed)
			return enc.Encode(b) == enc.Encode(b)
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}

func TestWLKernel(t *testing.T) {
	k := WLKernel{}
	a := randomTree(7, 1)
	shuffled := randomTree(7, 2)
	other := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(abcd)
		bd.Node(bd.Root(), "D")
		return bd.MustBuild()
	}()

	if got := Normalized(k, a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("Normalized(a, a) = %v, want 1", got)
	}
	if got := Normalized(k, a, shuffled); math.Abs(got-1) > 1e-9 {
		t.Errorf("kernel is not invariant under sibling order: %v", got)
	}
	if k.Similarity(a, other) != k.Similarity(other, a) {
		t.Error("kernel is not symmetric")
	}
	if got := Normalized(k, a, other); got >= 1 {
		t.Errorf("Normalized(a, other) = %v, want < 1", got)
	}

	empty := bigraph.NewBuilder(abcd)
	empty.Root()
	if got := Normalized(k, empty.MustBuild(), a); got != 0 {
		t.Errorf("Normalized with empty bigraph = %v, want 0", got)
	}
}
