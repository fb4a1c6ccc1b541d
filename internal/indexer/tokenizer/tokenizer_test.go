package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizePositionsAndOffsets(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	tokens := Tokenize(text)
	require.Len(t, tokens, 7)

	assert.Equal(t, "quick", tokens[0].Term)
	assert.Equal(t, 0, tokens[0].Position)
	assert.Equal(t, "quick", text[tokens[0].Start:tokens[0].End])

	assert.Equal(t, "jump", tokens[3].Term)
	assert.Equal(t, 3, tokens[3].Position)
	assert.Equal(t, "jumps", text[tokens[3].Start:tokens[3].End])

	assert.Equal(t, "lazi", tokens[5].Term)
	assert.Equal(t, "dog", tokens[6].Term)
	assert.Equal(t, 6, tokens[6].Position)
}

func TestTokenizeAnnotationsSharePosition(t *testing.T) {
	tokens := Tokenize("NE_PERSON Lincoln was president")
	require.Len(t, tokens, 3)
	assert.Equal(t, "ne_person", tokens[0].Term)
	assert.Equal(t, 0, tokens[0].Position)
	assert.Equal(t, "lincoln", tokens[1].Term)
	assert.Equal(t, 0, tokens[1].Position)
	assert.Equal(t, "presid", tokens[2].Term)
	assert.Equal(t, 1, tokens[2].Position)
}

func TestTokenizeMultibyteOffsets(t *testing.T) {
	text := "café crème brûlée"
	tokens := Tokenize(text)
	require.Len(t, tokens, 3)
	for _, tok := range tokens {
		assert.NotEmpty(t, text[tok.Start:tok.End])
	}
	assert.Equal(t, "brûlée", text[tokens[2].Start:tokens[2].End])
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("NE_PERSON"))
	assert.True(t, IsAnnotation("ne_location"))
	assert.False(t, IsAnnotation("ne_"))
	assert.False(t, IsAnnotation("neon"))
}

func TestAnalyzeDropsStopWords(t *testing.T) {
	assert.Equal(t, []string{"lazi", "fox"}, Analyze("the lazy fox"))
	assert.Empty(t, Analyze("the a of"))
}
