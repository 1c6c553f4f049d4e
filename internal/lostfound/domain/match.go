package domain

// Score is what a similarity provider returns. Reason is empty for providers
// that cannot explain themselves.
type Score struct {
	Similarity float64
	Reason     string
}

type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionMatch   Decision = "match"
	DecisionNoMatch Decision = "no-match"
)

// MatchAttempt pairs a posting with one candidate image. It lives only as
// long as the handoff flow keeps that candidate.
type MatchAttempt struct {
	Target     Posting
	Candidate  Image
	Similarity *float64
	Reason     string
	Decision   Decision
}

func NewMatchAttempt(target Posting, candidate Image) *MatchAttempt {
	return &MatchAttempt{Target: target, Candidate: candidate, Decision: DecisionPending}
}
