package domain

// ValidationIssue is a single validation error or warning.
type ValidationIssue struct {
	// Code is a machine-readable identifier (e.g. "CIRCULAR_DEPENDENCY").
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Subject identifies the offending element (atom ID, variant ID, field name).
	Subject string `json:"subject,omitempty"`
}

// Validation issue codes.
const (
	CodeNameRequired        = "NAME_REQUIRED"
	CodeNoAtoms             = "NO_ATOMS"
	CodeOrphanAtom          = "ORPHAN_ATOM"
	CodeCircularDependency  = "CIRCULAR_DEPENDENCY"
	CodeDanglingConnection  = "DANGLING_CONNECTION"
	CodeDuplicateAtom       = "DUPLICATE_ATOM"
	CodeDuplicateConnection = "DUPLICATE_CONNECTION"
	CodeTooFewVariants      = "TOO_FEW_VARIANTS"
	CodeControlVariant      = "CONTROL_VARIANT"
	CodeTrafficSum          = "TRAFFIC_SUM"
	CodePrimaryGoal         = "PRIMARY_GOAL"
	CodeStatisticalSettings = "STATISTICAL_SETTINGS"
)
