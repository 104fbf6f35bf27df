package access

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	reauthMessage      = "Your admin access could not be confirmed. Please log out and log in again."
	reverifyErrMessage = "Could not confirm admin access with the server. Log in again if problems persist."
)

// AdminStatus is the server's view of an admin credential.
type AdminStatus struct {
	Confirmed      bool
	ReloginAdvised bool
}

// AdminChecker calls the admin re-check endpoint.
type AdminChecker interface {
	CheckAdmin(ctx context.Context, token string) (AdminStatus, error)
}

// Reverifier asks the server to confirm admin claims after access was already granted.
// Its outcome is advisory: it can raise a warning but never changes a verdict.
type Reverifier struct {
	checker  AdminChecker
	notifier *Notifier
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewReverifier constructs a Reverifier. A zero timeout defaults to five seconds.
func NewReverifier(checker AdminChecker, notifier *Notifier, timeout time.Duration, logger *zap.Logger) *Reverifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reverifier{checker: checker, notifier: notifier, timeout: timeout, logger: logger}
}

// Start launches the re-check and returns immediately.
// The result is dropped if ctx is done or stillActive reports false by the time it arrives.
func (r *Reverifier) Start(ctx context.Context, eventID, token string, stillActive func() bool) {
	if r == nil || r.checker == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, eventID, token, stillActive)
	}()
}

func (r *Reverifier) run(ctx context.Context, eventID, token string, stillActive func() bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	status, err := r.checker.CheckAdmin(callCtx, token)

	if ctx.Err() != nil || (stillActive != nil && !stillActive()) {
		r.logger.Debug("admin re-verification discarded", zap.String("event_id", eventID))
		return
	}

	switch {
	case err != nil:
		r.logger.Warn("admin re-verification failed", zap.String("event_id", eventID), zap.Error(err))
		r.notifier.Emit(Notice{EventID: eventID, Kind: NoticeWarning, Message: reverifyErrMessage})
	case !status.Confirmed || status.ReloginAdvised:
		r.logger.Warn("admin claim not confirmed", zap.String("event_id", eventID),
			zap.Bool("relogin_advised", status.ReloginAdvised))
		r.notifier.Emit(Notice{EventID: eventID, Kind: NoticeWarning, Message: reauthMessage})
	default:
		r.logger.Debug("admin claim confirmed", zap.String("event_id", eventID))
	}
}

// Wait blocks until every started re-check has finished.
func (r *Reverifier) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
