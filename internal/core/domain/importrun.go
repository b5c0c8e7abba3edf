package domain

// FileOutcome is the terminal state of one walked file.
type FileOutcome string

const (
	OutcomeImported FileOutcome = "imported"
	OutcomeSkipped  FileOutcome = "skipped"
	OutcomeFailed   FileOutcome = "failed"
)

// FileError records one per-file failure for the run summary.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ImportSummary aggregates one import run. Per-file failures land here
// instead of failing the run.
type ImportSummary struct {
	Scanned  int         `json:"scanned"`
	Imported int         `json:"imported"`
	Skipped  int         `json:"skipped"`
	Failed   int         `json:"failed"`
	Errors   []FileError `json:"errors,omitempty"`
}

// ImportBatch is everything one file contributes to the final
// transactional write. Joins are fully resynced from Models/Tags.
type ImportBatch struct {
	Asset      *FileAsset
	AssetIsNew bool
	Document   *Document
	Metadata   *TechnicalMetadata
	Models     []MachineModel
	Tags       []string
}
