// Package passage turns span matches into scored passages. Each match is
// expanded into a primary window flanked by adjacent and secondary windows,
// the surrounding term occurrences are sorted into those zones, and the
// passage is scored by the weighted query terms it covers. The strongest
// passages per query are kept in a bounded selector.
package passage

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

// Passage is an immutable scored passage. Every slice is owned by the
// passage and ordered by (Position, Term).
type Passage struct {
	DocID              uint32       `json:"doc_id"`
	Field              string       `json:"field"`
	Score              float64      `json:"score"`
	Primary            []WindowTerm `json:"primary"`
	Previous           []WindowTerm `json:"previous,omitempty"`
	Following          []WindowTerm `json:"following,omitempty"`
	SecondaryPrevious  []WindowTerm `json:"secondary_previous,omitempty"`
	SecondaryFollowing []WindowTerm `json:"secondary_following,omitempty"`
	Bigrams            []WindowTerm `json:"bigrams,omitempty"`
}

// Builder accumulates one candidate passage. It is reused across candidates
// through Reset and is not safe for concurrent use.
type Builder struct {
	DocID uint32
	Field string
	Score float64
	sets  [numSets]termSet
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records wt in zone. Adding an existing (Position, Term) is a no-op.
func (b *Builder) Add(zone Zone, wt WindowTerm) {
	if int(zone) >= numSets {
		return
	}
	b.sets[zone].add(wt)
}

// Terms returns the builder's view of one zone. The slice is only valid
// until the next Add or Reset.
func (b *Builder) Terms(zone Zone) []WindowTerm {
	if int(zone) >= numSets {
		return nil
	}
	return b.sets[zone]
}

func (b *Builder) Len(zone Zone) int {
	return len(b.Terms(zone))
}

// Reset clears every zone and rebinds the builder to a new candidate while
// keeping the allocated capacity.
func (b *Builder) Reset(docID uint32, field string) {
	b.DocID = docID
	b.Field = field
	b.Score = 0
	for i := range b.sets {
		b.sets[i] = b.sets[i][:0]
	}
}

// Freeze copies the builder into an immutable Passage. It fails with
// ErrPassageInvariant when a position landed in more than one positional
// zone.
func (b *Builder) Freeze() (Passage, error) {
	seen := make(map[int]Zone)
	for zone := ZonePrimary; zone < ZoneBigram; zone++ {
		for _, wt := range b.sets[zone] {
			if prev, ok := seen[wt.Position]; ok && prev != zone {
				return Passage{}, fmt.Errorf("%w: doc %d position %d in both %s and %s zones",
					apperrors.ErrPassageInvariant, b.DocID, wt.Position, prev, zone)
			}
			seen[wt.Position] = zone
		}
	}
	return Passage{
		DocID:              b.DocID,
		Field:              b.Field,
		Score:              b.Score,
		Primary:            b.sets[ZonePrimary].clone(),
		Previous:           b.sets[ZonePrevious].clone(),
		Following:          b.sets[ZoneFollowing].clone(),
		SecondaryPrevious:  b.sets[ZoneSecondaryPrevious].clone(),
		SecondaryFollowing: b.sets[ZoneSecondaryFollowing].clone(),
		Bigrams:            b.sets[ZoneBigram].clone(),
	}, nil
}

// Terms returns the passage's terms in one zone.
func (p Passage) Terms(zone Zone) []WindowTerm {
	switch zone {
	case ZonePrimary:
		return p.Primary
	case ZonePrevious:
		return p.Previous
	case ZoneFollowing:
		return p.Following
	case ZoneSecondaryPrevious:
		return p.SecondaryPrevious
	case ZoneSecondaryFollowing:
		return p.SecondaryFollowing
	case ZoneBigram:
		return p.Bigrams
	}
	return nil
}
