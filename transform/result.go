package transform

// Result holds the output of a transform pass.
type Result struct {
	Root       *Node     `json:"root"`
	Checkboxes int       `json:"checkboxes"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// WarningType categorizes transform warnings.
type WarningType string

const (
	WarningMissingAttribute    WarningType = "missing_attribute"
	WarningInvalidAttribute    WarningType = "invalid_attribute"
	WarningUnresolvedReference WarningType = "unresolved_reference"
	WarningUntrustedLink       WarningType = "untrusted_link"
	WarningUnknownValue        WarningType = "unknown_value"
)

// Warning represents a local anomaly that degraded one node's rendering.
type Warning struct {
	Type     WarningType `json:"type"`
	NodeType string      `json:"nodeType,omitempty"`
	Message  string      `json:"message"`
}
