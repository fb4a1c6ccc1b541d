package passage

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
)

// WindowTerm is one term occurrence inside a passage window. Start and End
// are byte offsets into the field text, meaningful only when HasOffsets is
// set.
type WindowTerm struct {
	Term       string `json:"term"`
	Position   int    `json:"position"`
	Start      int    `json:"start,omitempty"`
	End        int    `json:"end,omitempty"`
	HasOffsets bool   `json:"has_offsets,omitempty"`
}

// Less orders window terms by position, then term text.
func (w WindowTerm) Less(o WindowTerm) bool {
	if w.Position != o.Position {
		return w.Position < o.Position
	}
	return w.Term < o.Term
}

func (w WindowTerm) sameKey(o WindowTerm) bool {
	return w.Position == o.Position && w.Term == o.Term
}

// termSet is an ordered set of window terms keyed by (Position, Term).
type termSet []WindowTerm

func (s *termSet) add(wt WindowTerm) {
	set := *s
	i := sort.Search(len(set), func(i int) bool { return !set[i].Less(wt) })
	if i < len(set) && set[i].sameKey(wt) {
		return
	}
	set = append(set, WindowTerm{})
	copy(set[i+1:], set[i:])
	set[i] = wt
	*s = set
}

func (s termSet) clone() []WindowTerm {
	if len(s) == 0 {
		return nil
	}
	out := make([]WindowTerm, len(s))
	copy(out, s)
	return out
}

// Zone identifies which window a position falls in. The first six values
// index the builder's term sets.
type Zone uint8

const (
	ZonePrimary Zone = iota
	ZonePrevious
	ZoneFollowing
	ZoneSecondaryPrevious
	ZoneSecondaryFollowing
	ZoneBigram
	ZoneOutOfRange
)

const numSets = int(ZoneBigram) + 1

var zoneNames = [...]string{"primary", "previous", "following", "secondary-previous", "secondary-following", "bigram", "out-of-range"}

func (z Zone) String() string {
	if int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return "unknown"
}

// WindowSizes are the widths, in token positions, of the primary window and
// of each flanking adjacent and secondary window.
type WindowSizes struct {
	Primary   int
	Adjacent  int
	Secondary int
}

// MaxWindow caps each window size so bound arithmetic cannot overflow.
const MaxWindow = 1 << 20

func DefaultWindowSizes() WindowSizes {
	return WindowSizes{Primary: 25, Adjacent: 25, Secondary: 25}
}

// Bounds are the inclusive zone boundaries around one span match.
type Bounds struct {
	PrimaryStart   int
	PrimaryEnd     int
	AdjacentStart  int
	AdjacentEnd    int
	SecondaryStart int
	SecondaryEnd   int
}

// NewBounds derives the zone boundaries for a match covering positions
// spanStart through spanEnd. Sizes are clamped to [0, MaxWindow].
func NewBounds(spanStart, spanEnd int, sizes WindowSizes) Bounds {
	sizes = sizes.clamped()
	b := Bounds{
		PrimaryStart: spanStart - sizes.Primary,
		PrimaryEnd:   spanEnd + sizes.Primary,
	}
	b.AdjacentStart = b.PrimaryStart - sizes.Adjacent
	b.AdjacentEnd = b.PrimaryEnd + sizes.Adjacent
	b.SecondaryStart = b.AdjacentStart - sizes.Secondary
	b.SecondaryEnd = b.AdjacentEnd + sizes.Secondary
	return b
}

func (s WindowSizes) clamped() WindowSizes {
	return WindowSizes{
		Primary:   min(max(s.Primary, 0), MaxWindow),
		Adjacent:  min(max(s.Adjacent, 0), MaxWindow),
		Secondary: min(max(s.Secondary, 0), MaxWindow),
	}
}

// Classify maps a token position to exactly one zone.
func (b Bounds) Classify(pos int) Zone {
	switch {
	case pos < b.SecondaryStart || pos > b.SecondaryEnd:
		return ZoneOutOfRange
	case pos >= b.PrimaryStart && pos <= b.PrimaryEnd:
		return ZonePrimary
	case pos >= b.AdjacentStart && pos < b.PrimaryStart:
		return ZonePrevious
	case pos > b.PrimaryEnd && pos <= b.AdjacentEnd:
		return ZoneFollowing
	case pos < b.AdjacentStart:
		return ZoneSecondaryPrevious
	default:
		return ZoneSecondaryFollowing
	}
}

// Classify distributes the occurrences of a term-vector stream into the
// builder's zones. Named-entity annotation terms are ignored. Primary-zone
// occurrences that follow each other in stream order are also recorded as
// bigrams keyed by the earlier occurrence's position.
func Classify(b *Builder, bounds Bounds, vector []index.VectorEntry) {
	var last WindowTerm
	haveLast := false
	for _, entry := range vector {
		if tokenizer.IsAnnotation(entry.Term) {
			continue
		}
		for i, pos := range entry.Positions {
			zone := bounds.Classify(pos)
			if zone == ZoneOutOfRange {
				continue
			}
			wt := WindowTerm{Term: entry.Term, Position: pos}
			if i < len(entry.Offsets) {
				wt.Start = entry.Offsets[i].Start
				wt.End = entry.Offsets[i].End
				wt.HasOffsets = true
			}
			b.Add(zone, wt)
			if zone != ZonePrimary {
				continue
			}
			if haveLast {
				b.Add(ZoneBigram, WindowTerm{Term: BigramKey(last.Term, wt.Term), Position: last.Position})
			}
			last = wt
			haveLast = true
		}
	}
}

// BigramKey joins two adjacent terms the way bigram window terms and bigram
// weights are keyed.
func BigramKey(first, second string) string {
	return strings.Join([]string{first, second}, ",")
}
