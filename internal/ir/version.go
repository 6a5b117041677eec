package ir

// Version constants for the encoding and the model layer.
const (
	// SchemaVersion is the canonical Version encoding version.
	SchemaVersion = "1"

	// EngineVersion is the syncmodel engine version.
	EngineVersion = "0.1.0"
)
