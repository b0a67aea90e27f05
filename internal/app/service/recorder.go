package service

// Redirect outcomes reported to a Recorder.
const (
	OutcomeRedirected   = "redirected"
	OutcomeNotFound     = "not_found"
	OutcomeExpired      = "expired"
	OutcomeNoCredit     = "no_credit"
	OutcomeOwnerMissing = "owner_missing"
	OutcomeError        = "error"
)

// Recorder receives business events for monitoring.
type Recorder interface {
	RedirectOutcome(outcome string)
	ClickLogFailed()
	CreditsAdded(amount int64)
	LinksSwept(count int64)
}

type nopRecorder struct{}

func (nopRecorder) RedirectOutcome(string) {}
func (nopRecorder) ClickLogFailed()        {}
func (nopRecorder) CreditsAdded(int64)     {}
func (nopRecorder) LinksSwept(int64)       {}
