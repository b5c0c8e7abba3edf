package domain

// Source records which subsystem(s) contributed a classification.
// Diagnostic provenance only, never used for branching downstream.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceRegex     Source = "regex"
	SourceAI        Source = "ai"
	SourceHybrid    Source = "hybrid"
)

// Classification is the orchestrator output: resolved taxonomy entities
// plus the final free-tag set.
type Classification struct {
	Department *Department
	Category   *Category
	Topic      *Topic
	Brand      *Brand
	Models     []MachineModel
	Tags       []string
	Source     Source
}

// ClassificationHint is the validated payload returned by the
// probabilistic classifier. All fields are optional; absent values stay
// empty and later pipeline steps fill the gaps.
type ClassificationHint struct {
	Brand    string   `json:"brand"`
	Models   []string `json:"models"`
	Category string   `json:"category"`
	Topic    string   `json:"topic"`
	Tags     []string `json:"tags"`
}

// SeriesScan is the deterministic extractor result for one filename.
type SeriesScan struct {
	Brand  string
	Series []string
	Models []string
}

// ParsedContent is what a format parser produces from raw file bytes.
type ParsedContent struct {
	Content  string
	Metadata map[string]string
}

// StoredObject describes where an uploaded blob ended up.
type StoredObject struct {
	Key    string
	Bucket string
	URL    string
}
