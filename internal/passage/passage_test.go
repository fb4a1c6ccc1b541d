package passage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

func TestFreezeIsolatedFromBuilder(t *testing.T) {
	b := NewBuilder()
	b.Reset(7, "body")
	b.Add(ZonePrimary, WindowTerm{Term: "fox", Position: 3})
	b.Add(ZoneBigram, WindowTerm{Term: "quick,fox", Position: 2})
	b.Score = 1.5

	p, err := b.Freeze()
	require.NoError(t, err)

	b.Reset(8, "title")
	b.Add(ZonePrimary, WindowTerm{Term: "dog", Position: 3})

	assert.Equal(t, uint32(7), p.DocID)
	assert.Equal(t, "body", p.Field)
	assert.Equal(t, 1.5, p.Score)
	assert.Equal(t, []WindowTerm{{Term: "fox", Position: 3}}, p.Primary)
	assert.Equal(t, []WindowTerm{{Term: "quick,fox", Position: 2}}, p.Bigrams)
}

func TestResetClearsEveryZone(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	for zone := ZonePrimary; zone <= ZoneBigram; zone++ {
		b.Add(zone, WindowTerm{Term: "t", Position: int(zone)})
	}
	b.Score = 3

	for range 2 {
		b.Reset(2, "body")
		for zone := ZonePrimary; zone <= ZoneBigram; zone++ {
			assert.Zero(t, b.Len(zone), zone.String())
		}
		assert.Zero(t, b.Score)
		assert.Equal(t, uint32(2), b.DocID)
	}
}

func TestFreezeRejectsOverlappingZones(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	b.Add(ZonePrimary, WindowTerm{Term: "fox", Position: 4})
	b.Add(ZoneFollowing, WindowTerm{Term: "dog", Position: 4})

	_, err := b.Freeze()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPassageInvariant)
}

func TestFreezeAllowsBigramAtPrimaryPosition(t *testing.T) {
	b := NewBuilder()
	b.Reset(1, "body")
	b.Add(ZonePrimary, WindowTerm{Term: "quick", Position: 4})
	b.Add(ZoneBigram, WindowTerm{Term: "quick,fox", Position: 4})
	_, err := b.Freeze()
	assert.NoError(t, err)
}

func TestAddIgnoresOutOfRange(t *testing.T) {
	b := NewBuilder()
	b.Add(ZoneOutOfRange, WindowTerm{Term: "x"})
	assert.Nil(t, b.Terms(ZoneOutOfRange))
}
