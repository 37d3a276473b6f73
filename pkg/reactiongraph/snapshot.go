package reactiongraph

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
)

// ErrCorruptSnapshot is returned when a snapshot fails its framing or
// checksum test.
var ErrCorruptSnapshot = errors.New("reactiongraph: corrupt snapshot")

var snapshotMagic = [4]byte{'B', 'R', 'G', '1'}

// snapshot is the serialised form of a graph. Bigraphs are not stored; the
// canonical form identifies each state.
type snapshot struct {
	States      []snapshotState `json:"states"`
	Transitions []Transition    `json:"transitions"`
	Incomplete  bool            `json:"incomplete,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

type snapshotState struct {
	ID         uint64 `json:"id"`
	Canonical  string `json:"canonical"`
	Label      string `json:"label"`
	Satisfying bool   `json:"satisfying,omitempty"`
}

// WriteSnapshot writes the graph as snappy-compressed JSON.
//
// Format: [magic:4][payloadLen:4][payload:N][crc32(payload):4]
func (g *Graph) WriteSnapshot(w io.Writer) error {
	snap := snapshot{Transitions: g.Transitions()}
	for _, s := range g.States() {
		snap.States = append(snap.States, snapshotState{
			ID:         s.ID,
			Canonical:  s.Canonical,
			Label:      s.Label,
			Satisfying: g.Satisfying(s.ID),
		})
	}
	snap.Incomplete = g.Incomplete()
	snap.Reason = g.IncompleteReason()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	payload := snappy.Encode(nil, data)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(payload))); err != nil {
		return err
	}
	if _, err := bw.Write(payload); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, crc32.ChecksumIEEE(payload)); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSnapshot restores a graph written by WriteSnapshot. Restored states
// carry no bigraph.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, magic[:])
	}
	var n uint32
	if err := binary.Read(br, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	var sum uint32
	if err := binary.Read(br, binary.BigEndian, &sum); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	data, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	g := New()
	for i, s := range snap.States {
		st, added := g.AddState(s.Canonical, nil)
		if !added || st.ID != s.ID || s.ID != uint64(i+1) {
			return nil, fmt.Errorf("%w: state %d out of sequence", ErrCorruptSnapshot, s.ID)
		}
		if s.Satisfying {
			g.SetSatisfying(st.ID, true)
		}
	}
	for _, t := range snap.Transitions {
		if _, ok := g.State(t.From); !ok {
			return nil, fmt.Errorf("%w: transition from unknown state %d", ErrCorruptSnapshot, t.From)
		}
		if _, ok := g.State(t.To); !ok {
			return nil, fmt.Errorf("%w: transition to unknown state %d", ErrCorruptSnapshot, t.To)
		}
		g.AddTransition(t)
	}
	if snap.Incomplete {
		g.MarkIncomplete(snap.Reason)
	}
	return g, nil
}
