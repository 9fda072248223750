package routing

// Decision is the classifier's output: destination sector, intent label,
// self-reported confidence, and any parameters the model extracted from the
// message. Ephemeral: only its audit projection is persisted.
type Decision struct {
	Sector     Sector         `json:"sector"`
	Intention  string         `json:"intention"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// IntentionClassificationFailed marks decisions produced by the fallback
// path rather than a parsed model reply.
const IntentionClassificationFailed = "classification_failed"

// Fallback reasons recorded in Decision.Parameters and the audit payload so
// parse failures and upstream failures stay distinguishable.
const (
	FallbackReasonParse    = "parse_failure"
	FallbackReasonUpstream = "upstream_failure"
)

// fallbackDecision builds the INTAKE decision used whenever classification
// cannot produce a trustworthy result. Not an error: live chat surfaces need
// something usable on every turn.
func fallbackDecision(reason, detail string, confidence float64) Decision {
	return Decision{
		Sector:     SectorIntake,
		Intention:  IntentionClassificationFailed,
		Confidence: confidence,
		Parameters: map[string]any{
			"fallback_reason": reason,
			"detail":          detail,
		},
	}
}
