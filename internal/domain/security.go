package domain

// PolicyVerdict describes how the dispatcher should treat an intent.
type PolicyVerdict string

const (
	VerdictAllow   PolicyVerdict = "allow"
	VerdictConfirm PolicyVerdict = "confirm"
	VerdictDeny    PolicyVerdict = "deny"
)

// PolicyDecision aggregates security evaluation data.
type PolicyDecision struct {
	Verdict      PolicyVerdict
	Reasons      []string
	MatchedRules []string
}

// Allowed is the zero-risk decision.
func Allowed() PolicyDecision {
	return PolicyDecision{Verdict: VerdictAllow}
}
