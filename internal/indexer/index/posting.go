package index

// Offset is the byte range [Start, End) of a token in its field's text.
type Offset struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Posting describes every occurrence of one term in one document field.
type Posting struct {
	DocID     uint32
	Frequency int
	Positions []int
	Offsets   []Offset
}

// VectorEntry is one row of a document's term vector: a term together with
// its frequency, positions and, when recorded, offsets (parallel to
// Positions).
type VectorEntry struct {
	Term      string
	Frequency int
	Positions []int
	Offsets   []Offset
}

// FieldStats summarises one indexed field.
type FieldStats struct {
	Field       string
	Docs        uint64
	Terms       int
	TotalTokens int64
}
