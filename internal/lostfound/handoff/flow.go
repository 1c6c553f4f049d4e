// Package handoff runs the finder's journey for one posting: attach a
// candidate photo, score it against the original, and on a match collect the
// finder's contact details.
package handoff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/match"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/similarity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ImageSource resolves a posting's image reference.
type ImageSource interface {
	FetchRemote(ctx context.Context, url string) (domain.Image, error)
}

// Claimer retires a posting once a finder's contact has been accepted.
type Claimer interface {
	Claim(ctx context.Context, p domain.Posting, c domain.FinderContact) error
}

type ClaimerFunc func(ctx context.Context, p domain.Posting, c domain.FinderContact) error

func (f ClaimerFunc) Claim(ctx context.Context, p domain.Posting, c domain.FinderContact) error {
	return f(ctx, p, c)
}

// Recorder receives scoring telemetry.
type Recorder interface {
	ObserveScore(outcome string, d time.Duration)
	ProviderError(kind string)
	StaleResultDiscarded()
}

type nopRecorder struct{}

func (nopRecorder) ObserveScore(string, time.Duration) {}
func (nopRecorder) ProviderError(string)               {}
func (nopRecorder) StaleResultDiscarded()              {}

const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Deps are the collaborators shared by every flow.
type Deps struct {
	Provider       similarity.Provider
	Images         ImageSource
	Claimer        Claimer
	Recorder       Recorder
	Clock          func() time.Time
	ScoringTimeout time.Duration
	NoticeTTL      time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.ScoringTimeout <= 0 {
		d.ScoringTimeout = 45 * time.Second
	}
	if d.NoticeTTL <= 0 {
		d.NoticeTTL = 3500 * time.Millisecond
	}
	return d
}

// Flow is one finder session against one posting. It is safe for concurrent
// use; scoring runs in the background and its result is applied only if no
// newer candidate, validation or close happened in the meantime.
type Flow struct {
	deps   Deps
	logger *logger.Logger

	mu         sync.Mutex
	state      State
	posting    domain.Posting
	attempt    *domain.MatchAttempt
	contact    *domain.FinderContact
	generation uint64
	submitting bool
	cancel     context.CancelFunc
	done       chan struct{}
	board      noticeBoard
}

// NewFlow opens a flow for posting in StateIdle.
func NewFlow(posting domain.Posting, deps Deps, log *logger.Logger) *Flow {
	deps = deps.withDefaults()
	return &Flow{
		deps:    deps,
		logger:  log.Named("handoff").With(zap.String("posting_id", posting.ID)),
		state:   StateIdle,
		posting: posting,
		board:   noticeBoard{ttl: deps.NoticeTTL},
	}
}

func (f *Flow) Posting() domain.Posting {
	return f.posting
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// transition must be called with f.mu held.
func (f *Flow) transition(to State) error {
	if !canTransition(f.state, to) {
		return &TransitionError{From: f.state, To: to}
	}
	f.state = to
	return nil
}

// abortScoring invalidates any in-flight score. Must be called with f.mu held.
func (f *Flow) abortScoring() {
	f.generation++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// AttachCandidate replaces the candidate photo. Any previous score, reason
// and decision are dropped, and an in-flight score is superseded.
func (f *Flow) AttachCandidate(img domain.Image) error {
	if img.Empty() {
		return fmt.Errorf("%w: candidate photo is empty", domain.ErrValidationFailure)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	from := f.state
	if err := f.transition(StateCandidateSelected); err != nil {
		return err
	}
	if from == StateScoring {
		f.logger.Info("Candidate replaced while scoring; in-flight result will be discarded")
	}
	f.abortScoring()
	f.attempt = domain.NewMatchAttempt(f.posting, img)
	f.contact = nil
	return nil
}

// Validate starts scoring the current candidate. The returned channel is
// closed once the attempt settles, whether its result was applied or
// discarded. Validating while a score is in flight is ErrScoringInFlight.
func (f *Flow) Validate() (<-chan struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateScoring {
		return nil, domain.ErrScoringInFlight
	}
	if err := f.transition(StateScoring); err != nil {
		return nil, err
	}

	f.abortScoring()
	gen := f.generation
	ctx, cancel := context.WithTimeout(context.Background(), f.deps.ScoringTimeout)
	f.cancel = cancel
	done := make(chan struct{})
	f.done = done

	go f.score(ctx, cancel, gen, f.posting, f.attempt.Candidate, done)
	return done, nil
}

func (f *Flow) score(ctx context.Context, cancel context.CancelFunc, gen uint64, posting domain.Posting, candidate domain.Image, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := f.deps.Clock()
	var (
		s   domain.Score
		err error
	)
	original, err := f.deps.Images.FetchRemote(ctx, posting.ImageURL)
	if err == nil {
		s, err = f.deps.Provider.Score(ctx, original, candidate)
	}
	if err == nil && !match.InRange(s.Similarity) {
		err = fmt.Errorf("%w: similarity %v out of range", domain.ErrMalformedResponse, s.Similarity)
	}
	if err != nil && !domain.IsProviderError(err) {
		err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	f.apply(gen, s, err, f.deps.Clock().Sub(start))
}

func (f *Flow) apply(gen uint64, s domain.Score, err error, elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation || f.state != StateScoring {
		f.deps.Recorder.StaleResultDiscarded()
		f.logger.Warn("Discarding stale scoring result",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", f.generation),
			zap.String("state", string(f.state)))
		return
	}
	f.cancel = nil
	now := f.deps.Clock()

	if err != nil {
		kind := domain.KindOf(err)
		f.deps.Recorder.ProviderError(string(kind))
		f.deps.Recorder.ObserveScore(OutcomeError, elapsed)
		f.logger.Warn("Scoring failed", zap.String("kind", string(kind)), zap.Error(err))

		f.state = StateCandidateSelected
		f.board.post(now, NoticeError, kind, "Comparison failed: "+failureText(kind))
		return
	}

	result := match.Decide(s.Similarity)
	sim := s.Similarity
	f.attempt.Similarity = &sim
	f.attempt.Reason = s.Reason
	f.attempt.Decision = result.Decision()

	if result.Match {
		f.state = StateMatched
		f.deps.Recorder.ObserveScore(OutcomeMatch, elapsed)
		f.board.post(now, NoticeSuccess, "", fmt.Sprintf("Match %.2f%%, proceed to contact details.", sim))
	} else {
		f.state = StateRejected
		f.deps.Recorder.ObserveScore(OutcomeNoMatch, elapsed)
		f.board.post(now, NoticeInfo, "", fmt.Sprintf("Not a match (%.2f%%).", sim))
	}
	f.logger.Info("Scoring settled",
		zap.Float64("similarity", sim),
		zap.String("decision", string(f.attempt.Decision)),
		zap.Duration("elapsed", elapsed))
}

func failureText(kind domain.Kind) string {
	switch kind {
	case domain.KindAccessDenied:
		return "the original photo's host refused access."
	case domain.KindNetworkFailure:
		return "an image could not be loaded."
	case domain.KindMalformedResponse:
		return "the comparison service returned an unreadable answer."
	case domain.KindModelLoadFailed:
		return "the comparison model could not be loaded. Try again."
	default:
		return "the comparison service is unavailable."
	}
}

// ProceedToContact opens the contact form after a match.
func (f *Flow) ProceedToContact() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(StateContactForm)
}

// BackToMatch leaves the contact form without submitting.
func (f *Flow) BackToMatch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return domain.ErrSubmitInFlight
	}
	return f.transition(StateMatched)
}

// Submit validates c and hands it to the claimer. A contact without mobile or
// pickup location fails with ErrValidationFailure, leaves the flow in the
// contact form and never reaches the claimer. The claimer runs without the
// flow lock held; a Close that lands meanwhile wins.
func (f *Flow) Submit(ctx context.Context, c domain.FinderContact) error {
	f.mu.Lock()
	if f.state != StateContactForm {
		err := &TransitionError{From: f.state, To: StateSubmitted}
		f.mu.Unlock()
		return err
	}
	if f.submitting {
		f.mu.Unlock()
		return domain.ErrSubmitInFlight
	}
	if err := c.Validate(); err != nil {
		f.board.post(f.deps.Clock(), NoticeError, domain.KindValidationFailure, "Fill in the required fields.")
		f.mu.Unlock()
		return err
	}
	contact := c.Normalize()
	posting := f.posting
	f.submitting = true
	f.mu.Unlock()

	err := f.deps.Claimer.Claim(ctx, posting, contact)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	now := f.deps.Clock()

	if err != nil {
		f.logger.Error("Claim failed", zap.Error(err))
		if f.state == StateContactForm {
			f.board.post(now, NoticeError, domain.KindOf(err), "Submission failed. Try again.")
		}
		return fmt.Errorf("handoff.Submit: %w", err)
	}
	if f.state != StateContactForm {
		f.logger.Info("Flow closed while the claim was running", zap.String("state", string(f.state)))
		return nil
	}

	f.contact = &contact
	f.state = StateSubmitted
	f.board.post(now, NoticeSuccess, "", "Finder info submitted.")
	f.logger.Info("Finder contact submitted")
	return nil
}

// Close drops every piece of ephemeral state and discards any in-flight
// score. Closing twice is a no-op.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateClosed {
		return
	}
	f.abortScoring()
	f.state = StateClosed
	f.attempt = nil
	f.contact = nil
	f.board.clear()
}

// Dismiss removes a notice before it expires.
func (f *Flow) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.board.dismiss(id)
}

// Done returns the completion channel of the latest scoring run, or nil if
// none was started.
func (f *Flow) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Snapshot is a point-in-time copy of the flow for presentation.
type Snapshot struct {
	State      State
	PostingID  string
	Candidate  string
	Similarity *float64
	Reason     string
	Decision   domain.Decision
	Contact    *domain.FinderContact
	Notices    []Notice
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{
		State:     f.state,
		PostingID: f.posting.ID,
		Notices:   f.board.active(f.deps.Clock()),
	}
	if f.attempt != nil {
		snap.Candidate = f.attempt.Candidate.Name
		snap.Reason = f.attempt.Reason
		snap.Decision = f.attempt.Decision
		if f.attempt.Similarity != nil {
			v := *f.attempt.Similarity
			snap.Similarity = &v
		}
	}
	if f.contact != nil {
		c := *f.contact
		snap.Contact = &c
	}
	return snap
}
