package ports

// Normalizer defines the interface for text normalization.
type Normalizer interface {
	Normalize(text string) string
}

// Analyzer splits text into the terms a vector-space metric counts.
type Analyzer interface {
	Terms(text string) []string
}
