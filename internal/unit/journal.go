package unit

// NOTE: JournalEntry is a store-layer record, not part of the patch model.
// It is defined here so the engine and the store share it without importing
// each other.

// Journal operation names.
const (
	OpApply         = "apply"          // extension applied by a caller
	OpReplay        = "replay"         // extension re-applied after a revert
	OpRevert        = "revert"         // target restored to its pristine unit
	OpRemove        = "remove"         // single extension removed
	OpRemovePackage = "remove_package" // all extensions of a package removed
)

// JournalEntry records one patch state transition.
type JournalEntry struct {
	Seq       int64     `json:"seq"`     // Logical clock
	Session   string    `json:"session"` // Top-level operation token
	Op        string    `json:"op"`
	Extension Path      `json:"extension,omitempty"`
	Target    Path      `json:"target,omitempty"`
	Package   PackageID `json:"package,omitempty"`
	Depth     int       `json:"depth"` // Chain length (excluding pristine) after the op
}
