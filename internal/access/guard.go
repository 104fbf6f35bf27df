package access

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/session"
)

// Guard is the client-side route guard. It reads the credential from an
// injected session, decides, and performs the side effects the verdict calls
// for: rejection notices, clearing bad credentials and admin re-verification.
type Guard struct {
	decider    *Decider
	session    *session.Session
	routes     *RouteTable
	notifier   *Notifier
	reverifier *Reverifier
	logger     *zap.Logger

	mu         sync.Mutex
	currentNav string
	navCtx     context.Context
	cancelNav  context.CancelFunc
}

// GuardDeps bundles Guard collaborators. Routes, Notifier and Reverifier are optional.
type GuardDeps struct {
	Decider    *Decider
	Session    *session.Session
	Routes     *RouteTable
	Notifier   *Notifier
	Reverifier *Reverifier
	Logger     *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(deps GuardDeps) *Guard {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	routes := deps.Routes
	if routes == nil {
		routes = DefaultRouteTable()
	}
	return &Guard{
		decider:    deps.Decider,
		session:    deps.Session,
		routes:     routes,
		notifier:   deps.Notifier,
		reverifier: deps.Reverifier,
		logger:     logger,
	}
}

// Navigate checks the route table entry for path.
// navigationID identifies one navigation attempt; re-checks with the same ID
// never repeat a notice. An empty ID starts a new attempt.
func (g *Guard) Navigate(ctx context.Context, navigationID, path string) Verdict {
	route, ok := g.routes.Resolve(path)
	if !ok {
		g.endNavigation()
		g.logger.Debug("unknown route", zap.String("path", path))
		return DenyRedirect(g.routes.Fallback(), ReasonUnknownRoute, nil)
	}
	if route.Public {
		g.endNavigation()
		return Allow()
	}
	return g.Check(ctx, navigationID, route.Requirement)
}

// Check runs the decision procedure for req against the session's credential.
func (g *Guard) Check(ctx context.Context, navigationID string, req *Requirement) Verdict {
	if navigationID == "" {
		navigationID = uuid.NewString()
	}
	navCtx, fresh := g.beginNavigation(navigationID)

	snap := g.session.Snapshot()
	decision := g.decider.Decide(ctx, snap.Token, req)
	verdict := decision.Verdict

	switch verdict.Outcome {
	case OutcomeDenyUnauthenticated:
		g.logger.Info("access denied: unauthenticated",
			zap.String("navigation_id", navigationID), zap.String("reason", string(verdict.Reason)))
		if snap.Token != "" && verdict.ClearsCredential() {
			if err := g.session.ClearIfCurrent(ctx, snap.Generation, string(verdict.Reason)); err != nil {
				g.logger.Warn("failed to clear credential", zap.Error(err))
			}
		}
	case OutcomeDenyRedirect:
		g.logger.Info("access denied: insufficient role",
			zap.String("navigation_id", navigationID),
			zap.String("role", decision.Subject.Role.String()),
			zap.String("target", verdict.Target))
		g.notifier.Emit(Notice{
			EventID: navigationID,
			Kind:    NoticeRejection,
			Message: RejectionMessage(verdict.Required),
		})
	case OutcomeAllow:
		if fresh && req.AdminOnly() && decision.Subject != nil && decision.Subject.IsAdmin() {
			generation := snap.Generation
			g.reverifier.Start(navCtx, navigationID, snap.Token, func() bool {
				return g.session.IsCurrent(generation)
			})
		}
	}
	return verdict
}

// Leave abandons the current navigation, suppressing its pending side effects.
func (g *Guard) Leave() {
	g.endNavigation()
}

// beginNavigation returns the context for navigationID, cancelling the previous
// navigation's context when the ID changes. fresh is false for a re-check of the
// navigation already in progress.
func (g *Guard) beginNavigation(navigationID string) (ctx context.Context, fresh bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelNav != nil && g.currentNav == navigationID && g.navCtx.Err() == nil {
		return g.navCtx, false
	}
	if g.cancelNav != nil {
		g.cancelNav()
	}
	g.navCtx, g.cancelNav = context.WithCancel(g.session.Context())
	g.currentNav = navigationID
	return g.navCtx, true
}

func (g *Guard) endNavigation() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelNav != nil {
		g.cancelNav()
		g.cancelNav = nil
		g.navCtx = nil
		g.currentNav = ""
	}
}
