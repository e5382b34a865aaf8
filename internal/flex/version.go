package flex

// Version constants for the encoding and the module.
const (
	// EncodingVersion is the canonical encoding version. It matches the
	// suffix of DomainDocument.
	EncodingVersion = "1"

	// Version is the docgraph release version.
	Version = "0.1.0"
)
