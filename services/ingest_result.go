package services

// Issue kinds reported by the ingestion engine.
const (
	// KindFatalEntityMissing aborts the run: the university named in the
	// payload (or the payload's anchor data itself) does not exist.
	KindFatalEntityMissing = "FatalEntityMissing"
	// KindFatalIntegrityViolation aborts the run: a storage-level constraint
	// failed in a way the resolver did not anticipate.
	KindFatalIntegrityViolation = "FatalIntegrityViolation"
	// KindSkippedSubtree marks a child entity whose key fields were too
	// incomplete to resolve; its subtree is skipped, siblings continue.
	KindSkippedSubtree = "SkippedSubtree"
	// KindUnmappedEnum marks a value that could not be normalized; it is
	// stored as extracted.
	KindUnmappedEnum = "UnmappedEnum"
	// KindRaceRetried marks a concurrent-insert collision converted to an
	// update. Logged only, never returned to the caller.
	KindRaceRetried = "RaceRetried"
	// KindExtractionWarning carries a warning reported by the document
	// reader, passed through unmodified.
	KindExtractionWarning = "ExtractionWarning"
	// KindNoProgramIntakes flags a run that finished without touching a
	// single intake row, which usually means the extraction went wrong.
	KindNoProgramIntakes = "NoProgramIntakes"
)

// Entity type labels used in issues.
const (
	EntityUniversity      = "University"
	EntityMajor           = "Major"
	EntityProgramIntake   = "ProgramIntake"
	EntityProgramDocument = "ProgramDocument"
	EntityScholarship     = "Scholarship"
	EntityIntakeLink      = "ProgramIntakeScholarship"
)

// Issue describes one error or warning, tied to the entity and the would-be
// identity key it concerns.
type Issue struct {
	Kind       string `json:"kind"`
	EntityType string `json:"entity_type,omitempty"`
	Key        string `json:"key,omitempty"`
	Message    string `json:"message"`
}

// IngestCounts tallies rows written per entity type in one run.
type IngestCounts struct {
	MajorsInserted         int `json:"majors_inserted"`
	MajorsUpdated          int `json:"majors_updated"`
	ProgramIntakesInserted int `json:"program_intakes_inserted"`
	ProgramIntakesUpdated  int `json:"program_intakes_updated"`
	DocumentsInserted      int `json:"documents_inserted"`
	DocumentsUpdated       int `json:"documents_updated"`
	ScholarshipsInserted   int `json:"scholarships_inserted"`
	ScholarshipsUpdated    int `json:"scholarships_updated"`
	LinksInserted          int `json:"links_inserted"`
}

// IngestResult is the outcome of one ingestion run. On success the counts
// reflect everything committed and warnings list the data-quality issues
// absorbed along the way; on failure all counts are zero because nothing was
// committed. The result is not mutated after the run closes.
type IngestResult struct {
	Success  bool         `json:"success"`
	Counts   IngestCounts `json:"counts"`
	Errors   []Issue      `json:"errors,omitempty"`
	Warnings []Issue      `json:"warnings,omitempty"`
}

// upsertAction is the per-entity outcome of an apply step.
type upsertAction int

const (
	actionInserted upsertAction = iota
	actionUpdated
	actionUnchanged
)

// ingestState tracks the coordinator's lifecycle for one run.
type ingestState string

const (
	stateStarted     ingestState = "started"
	stateValidating  ingestState = "validating"
	stateWriting     ingestState = "writing"
	stateCommitting  ingestState = "committing"
	stateRollingBack ingestState = "rolling_back"
	stateClosed      ingestState = "closed"
)
