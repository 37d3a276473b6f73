package canonical

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// Colouring is the result of colour refinement over the nodes of a bigraph.
// Colours are content hashes, so they are comparable across bigraphs.
type Colouring struct {
	Node   map[*bigraph.Place]uint64
	Rounds []map[uint64]int
}

// Refine runs Weisfeiler-Lehman colour refinement over the place and link
// structure. Each round a node's colour absorbs its parent, its children and,
// per port, the colours of the other points on that link. With rounds <= 0
// refinement runs until the partition stops splitting.
func Refine(b *bigraph.Bigraph, rounds int) *Colouring {
	nodes := b.Nodes()
	col := &Colouring{Node: make(map[*bigraph.Place]uint64, len(nodes))}

	hist := make(map[uint64]int)
	for _, n := range nodes {
		c := hashString("n|" + n.Control.Name + "|" + strconv.Itoa(n.Control.Arity))
		col.Node[n] = c
		hist[c]++
	}
	col.Rounds = append(col.Rounds, hist)

	limit := rounds
	if limit <= 0 {
		limit = len(nodes) + 1
	}
	classes := len(hist)
	var sb strings.Builder
	for round := 1; round <= limit; round++ {
		next := make(map[*bigraph.Place]uint64, len(nodes))
		hist = make(map[uint64]int)
		for _, n := range nodes {
			sb.Reset()
			writeSignature(&sb, round, n, col.Node)
			c := hashString(sb.String())
			next[n] = c
			hist[c]++
		}
		col.Node = next
		col.Rounds = append(col.Rounds, hist)
		if rounds <= 0 {
			if len(hist) == classes {
				break
			}
			classes = len(hist)
		}
	}
	return col
}

func writeSignature(sb *strings.Builder, round int, n *bigraph.Place, prev map[*bigraph.Place]uint64) {
	sb.WriteString(strconv.Itoa(round))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatUint(prev[n], 16))

	sb.WriteString("^")
	sb.WriteString(placeToken(n.Parent, prev))

	kids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		kids = append(kids, placeToken(c, prev))
	}
	sort.Strings(kids)
	sb.WriteString("(")
	sb.WriteString(strings.Join(kids, ","))
	sb.WriteString(")[")

	for i, l := range n.Ports {
		if i > 0 {
			sb.WriteByte(';')
		}
		if l == nil {
			sb.WriteByte('-')
			continue
		}
		if l.Kind == bigraph.LinkOuterName {
			sb.WriteString("o:")
			sb.WriteString(l.Name)
			continue
		}
		others := make([]string, 0, len(l.Points))
		for _, pt := range l.Points {
			if pt.Kind == bigraph.PointInnerName {
				others = append(others, "/"+pt.Name)
				continue
			}
			if pt.Node == n && pt.Port == i {
				continue
			}
			others = append(others, strconv.FormatUint(prev[pt.Node], 16)+"."+strconv.Itoa(pt.Port))
		}
		sort.Strings(others)
		sb.WriteString("e{")
		sb.WriteString(strings.Join(others, ","))
		sb.WriteString("}")
	}
	sb.WriteString("]")
}

func placeToken(p *bigraph.Place, prev map[*bigraph.Place]uint64) string {
	switch {
	case p == nil:
		return "-"
	case p.Kind == bigraph.KindRoot:
		return "r" + strconv.Itoa(p.Index)
	case p.Kind == bigraph.KindSite:
		return "$" + strconv.Itoa(p.Index)
	default:
		return strconv.FormatUint(prev[p], 16)
	}
}

func hashString(s string) uint64 {
	sum := blake2b.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// Fingerprint returns a short stable digest of a canonical form, used as a
// display label for states.
func Fingerprint(canonical string) string {
	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:6])
}
