package protocol

// Location represents a location in a document
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Range represents a range in a document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position represents a zero-based position in a document
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}
