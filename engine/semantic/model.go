package semantic

// Match is a single similarity hit with its stored payload.
type Match struct {
	ID      string            `json:"id"`
	Score   float32           `json:"score"`
	Payload map[string]string `json:"payload"`
}

// VectorRecord is a single point to store in Qdrant. Payload values must
// already be strings; the index rejects null or numeric metadata.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]string
}
