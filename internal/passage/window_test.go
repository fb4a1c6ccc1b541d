package passage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/index"
)

func positions(terms []WindowTerm) []int {
	var out []int
	for _, wt := range terms {
		out = append(out, wt.Position)
	}
	return out
}

func entry(term string, pos ...int) index.VectorEntry {
	return index.VectorEntry{Term: term, Frequency: len(pos), Positions: pos}
}

func TestNewBounds(t *testing.T) {
	b := NewBounds(5, 5, WindowSizes{Primary: 2, Adjacent: 2, Secondary: 2})
	assert.Equal(t, Bounds{
		PrimaryStart: 3, PrimaryEnd: 7,
		AdjacentStart: 1, AdjacentEnd: 9,
		SecondaryStart: -1, SecondaryEnd: 11,
	}, b)
}

func TestNewBoundsClampsHugeWindows(t *testing.T) {
	b := NewBounds(5, 5, WindowSizes{Primary: math.MaxInt, Adjacent: math.MaxInt, Secondary: -3})
	assert.Equal(t, 5-MaxWindow, b.PrimaryStart)
	assert.Equal(t, 5+MaxWindow, b.PrimaryEnd)
	assert.Equal(t, b.AdjacentStart, b.SecondaryStart)
	assert.Equal(t, ZonePrimary, b.Classify(5))
	assert.Equal(t, ZonePrimary, b.Classify(0))
}

func TestBoundsClassify(t *testing.T) {
	b := NewBounds(10, 12, WindowSizes{Primary: 3, Adjacent: 2, Secondary: 4})
	cases := map[int]Zone{
		0:  ZoneOutOfRange,
		1:  ZoneSecondaryPrevious,
		4:  ZoneSecondaryPrevious,
		5:  ZonePrevious,
		6:  ZonePrevious,
		7:  ZonePrimary,
		15: ZonePrimary,
		16: ZoneFollowing,
		17: ZoneFollowing,
		18: ZoneSecondaryFollowing,
		21: ZoneSecondaryFollowing,
		22: ZoneOutOfRange,
	}
	for pos, want := range cases {
		assert.Equal(t, want, b.Classify(pos), "position %d", pos)
	}
}

func TestClassifyZonesAreDisjoint(t *testing.T) {
	for _, sizes := range []WindowSizes{
		{Primary: 0, Adjacent: 0, Secondary: 0},
		{Primary: 1, Adjacent: 0, Secondary: 3},
		{Primary: 2, Adjacent: 2, Secondary: 2},
		{Primary: 5, Adjacent: 1, Secondary: 0},
	} {
		for start := 0; start < 20; start += 3 {
			bounds := NewBounds(start, start+2, sizes)
			all := make([]int, 40)
			for i := range all {
				all[i] = i
			}
			b := NewBuilder()
			b.Reset(1, "body")
			Classify(b, bounds, []index.VectorEntry{entry("term", all...)})

			seen := make(map[int]Zone)
			for zone := ZonePrimary; zone < ZoneBigram; zone++ {
				for _, pos := range positions(b.Terms(zone)) {
					prev, dup := seen[pos]
					require.False(t, dup, "position %d in %s and %s", pos, prev, zone)
					seen[pos] = zone
				}
			}
			_, err := b.Freeze()
			require.NoError(t, err)
		}
	}
}

func TestClassifyWindowExample(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	Classify(b, NewBounds(5, 5, WindowSizes{Primary: 2, Adjacent: 2, Secondary: 2}), []index.VectorEntry{
		entry("a", 3, 4, 5, 6),
		entry("b", 7, 8, 9, 10),
	})

	assert.Equal(t, []int{3, 4, 5, 6, 7}, positions(b.Terms(ZonePrimary)))
	assert.Empty(t, b.Terms(ZonePrevious))
	assert.Equal(t, []int{8, 9}, positions(b.Terms(ZoneFollowing)))
	assert.Empty(t, b.Terms(ZoneSecondaryPrevious))
	assert.Equal(t, []int{10}, positions(b.Terms(ZoneSecondaryFollowing)))
}

func TestClassifyDropsAnnotations(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	Classify(b, NewBounds(0, 0, DefaultWindowSizes()), []index.VectorEntry{
		entry("NE_PERSON", 0),
		entry("lincoln", 0),
		entry("ne_location", 3),
	})
	require.Len(t, b.Terms(ZonePrimary), 1)
	assert.Equal(t, "lincoln", b.Terms(ZonePrimary)[0].Term)
	assert.Empty(t, b.Terms(ZoneBigram))
}

func TestClassifyBigramsFollowStreamOrder(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	// Window covers 2..6 as primary; 8 is outside the primary window.
	Classify(b, NewBounds(4, 4, WindowSizes{Primary: 2, Adjacent: 5, Secondary: 0}), []index.VectorEntry{
		entry("fox", 2, 8),
		entry("lazi", 6),
		entry("quick", 3),
	})

	bigrams := b.Terms(ZoneBigram)
	require.Len(t, bigrams, 2)
	// fox@2 -> lazi@6 (fox@8 is adjacent and does not break the chain),
	// lazi@6 -> quick@3.
	assert.Equal(t, WindowTerm{Term: "fox,lazi", Position: 2}, bigrams[0])
	assert.Equal(t, WindowTerm{Term: "lazi,quick", Position: 6}, bigrams[1])
	assert.Equal(t, []int{8}, positions(b.Terms(ZoneFollowing)))
}

func TestClassifyCopiesOffsets(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	Classify(b, NewBounds(0, 0, DefaultWindowSizes()), []index.VectorEntry{{
		Term:      "fox",
		Frequency: 1,
		Positions: []int{0},
		Offsets:   []index.Offset{{Start: 4, End: 7}},
	}})
	assert.Equal(t, []WindowTerm{{Term: "fox", Position: 0, Start: 4, End: 7, HasOffsets: true}}, b.Terms(ZonePrimary))
}

func TestTermSetOrderedAndUnique(t *testing.T) {
	var s termSet
	s.add(WindowTerm{Term: "b", Position: 2})
	s.add(WindowTerm{Term: "a", Position: 2})
	s.add(WindowTerm{Term: "z", Position: 1})
	s.add(WindowTerm{Term: "a", Position: 2})
	assert.Equal(t, []WindowTerm{
		{Term: "z", Position: 1},
		{Term: "a", Position: 2},
		{Term: "b", Position: 2},
	}, []WindowTerm(s))
}
