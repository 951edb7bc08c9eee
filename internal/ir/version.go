package ir

// Version constants for persisted records.
const (
	// IRVersion is the schema version of canonical records (states, moves,
	// circuit digests).
	IRVersion = "1"

	// EngineVersion is the evaluator version recorded with verification runs.
	EngineVersion = "0.1.0"
)
