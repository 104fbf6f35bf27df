package access

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/edushare/internal/domain"
	"github.com/spec-kit/edushare/internal/session"
)

type checkerFunc func(ctx context.Context, token string) (AdminStatus, error)

func (f checkerFunc) CheckAdmin(ctx context.Context, token string) (AdminStatus, error) {
	return f(ctx, token)
}

type guardFixture struct {
	guard      *Guard
	session    *session.Session
	sink       *recordingSink
	reverifier *Reverifier
}

func newGuardFixture(t *testing.T, checker AdminChecker, timeout time.Duration) guardFixture {
	t.Helper()
	sink := &recordingSink{}
	notifier, err := NewNotifier(sink, 16)
	require.NoError(t, err)

	sess := session.New("tab", session.NewMemoryStore(), zap.NewNop())
	reverifier := NewReverifier(checker, notifier, timeout, zap.NewNop())
	guard := NewGuard(GuardDeps{
		Decider:    newTestDecider(),
		Session:    sess,
		Notifier:   notifier,
		Reverifier: reverifier,
	})
	return guardFixture{guard: guard, session: sess, sink: sink, reverifier: reverifier}
}

func login(t *testing.T, s *session.Session, token string, role domain.Role) {
	t.Helper()
	require.NoError(t, s.Login(context.Background(), token, domain.Subject{ID: token, Role: role}, time.Now().Add(time.Hour)))
}

func confirmed() AdminChecker {
	return checkerFunc(func(context.Context, string) (AdminStatus, error) {
		return AdminStatus{Confirmed: true}, nil
	})
}

func TestGuardRejectionNoticeOncePerNavigation(t *testing.T) {
	fx := newGuardFixture(t, confirmed(), time.Second)
	login(t, fx.session, "student", domain.RoleStudent)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v := fx.guard.Navigate(ctx, "nav-1", "/faculty/dashboard")
		assert.Equal(t, OutcomeDenyRedirect, v.Outcome)
		assert.Equal(t, "/dashboard", v.Target)
	}
	require.Len(t, fx.sink.all(), 1)
	assert.Equal(t, "This section requires faculty access", fx.sink.all()[0].Message)

	fx.guard.Navigate(ctx, "nav-2", "/faculty/dashboard")
	assert.Len(t, fx.sink.all(), 2)
}

func TestGuardPublicRoutesNeedNoCredential(t *testing.T) {
	fx := newGuardFixture(t, confirmed(), time.Second)
	assert.Equal(t, Allow(), fx.guard.Navigate(context.Background(), "", "/auth/signup"))
	assert.Equal(t, Allow(), fx.guard.Navigate(context.Background(), "", "/"))
}

func TestGuardUnknownRouteFallsBack(t *testing.T) {
	fx := newGuardFixture(t, confirmed(), time.Second)
	v := fx.guard.Navigate(context.Background(), "", "/nowhere")
	assert.Equal(t, DenyRedirect("/", ReasonUnknownRoute, nil), v)
}

func TestGuardWithoutCredential(t *testing.T) {
	fx := newGuardFixture(t, confirmed(), time.Second)
	v := fx.guard.Navigate(context.Background(), "", "/admin/dashboard")
	assert.Equal(t, DenyUnauthenticated(ReasonMissingCredential), v)
	assert.Empty(t, fx.sink.all())
}

func TestGuardClearsExpiredCredential(t *testing.T) {
	fx := newGuardFixture(t, confirmed(), time.Second)
	login(t, fx.session, "expired", domain.RoleStudent)

	v := fx.guard.Navigate(context.Background(), "", "/profile")
	assert.Equal(t, DenyUnauthenticated(ReasonExpiredCredential), v)
	assert.Empty(t, fx.session.Snapshot().Token)
}

func TestGuardAdminReverificationConfirmed(t *testing.T) {
	var calls atomic.Int32
	fx := newGuardFixture(t, checkerFunc(func(_ context.Context, token string) (AdminStatus, error) {
		calls.Add(1)
		assert.Equal(t, "admin", token)
		return AdminStatus{Confirmed: true}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	v := fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard")
	assert.True(t, v.Allowed())
	fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard")
	fx.reverifier.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, fx.sink.all())
}

func TestGuardReverificationOnlyForAdminOnlyRoutes(t *testing.T) {
	var calls atomic.Int32
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		calls.Add(1)
		return AdminStatus{Confirmed: true}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Navigate(context.Background(), "", "/faculty/dashboard").Allowed())
	assert.True(t, fx.guard.Navigate(context.Background(), "", "/profile").Allowed())
	fx.reverifier.Wait()
	assert.Zero(t, calls.Load())
}

func TestGuardEmptyRequirementReverifiesAdmin(t *testing.T) {
	var calls atomic.Int32
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		calls.Add(1)
		return AdminStatus{Confirmed: true}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Check(context.Background(), "nav-1", Roles()).Allowed())
	fx.reverifier.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestGuardUnconfirmedAdminStillAllowedNextNavigation(t *testing.T) {
	var calls atomic.Int32
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		calls.Add(1)
		return AdminStatus{Confirmed: false, ReloginAdvised: true}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.Equal(t, Allow(), fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard"))
	fx.reverifier.Wait()
	assert.Equal(t, Allow(), fx.guard.Navigate(context.Background(), "nav-2", "/admin/users"))
	fx.reverifier.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, fx.sink.count(NoticeWarning))
	assert.Equal(t, "admin", fx.session.Snapshot().Token)
}

func TestGuardReverificationTimeoutOnlyWarns(t *testing.T) {
	fx := newGuardFixture(t, checkerFunc(func(ctx context.Context, _ string) (AdminStatus, error) {
		<-ctx.Done()
		return AdminStatus{}, ctx.Err()
	}), 20*time.Millisecond)
	login(t, fx.session, "admin", domain.RoleAdmin)

	v := fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard")
	assert.Equal(t, Allow(), v)

	fx.reverifier.Wait()
	assert.Equal(t, 1, fx.sink.count(NoticeWarning))
	assert.Zero(t, fx.sink.count(NoticeRejection))
	assert.Equal(t, "admin", fx.session.Snapshot().Token)
}

func TestGuardReverificationUnconfirmedWarns(t *testing.T) {
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		return AdminStatus{Confirmed: false, ReloginAdvised: true}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Navigate(context.Background(), "nav-1", "/admin/users").Allowed())
	fx.reverifier.Wait()

	notices := fx.sink.all()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeWarning, notices[0].Kind)
	assert.Equal(t, "nav-1", notices[0].EventID)
}

func TestGuardReverificationDiscardedAfterLogout(t *testing.T) {
	release := make(chan struct{})
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		<-release
		return AdminStatus{}, errors.New("boom")
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard").Allowed())
	require.NoError(t, fx.session.Logout(context.Background()))
	close(release)
	fx.reverifier.Wait()

	assert.Empty(t, fx.sink.all())
}

func TestGuardReverificationDiscardedAfterNavigatingAway(t *testing.T) {
	release := make(chan struct{})
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		<-release
		return AdminStatus{Confirmed: false}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard").Allowed())
	assert.True(t, fx.guard.Navigate(context.Background(), "nav-2", "/profile").Allowed())
	close(release)
	fx.reverifier.Wait()

	assert.Empty(t, fx.sink.all())
}

func TestGuardReverificationDiscardedAfterRelogin(t *testing.T) {
	release := make(chan struct{})
	fx := newGuardFixture(t, checkerFunc(func(context.Context, string) (AdminStatus, error) {
		<-release
		return AdminStatus{Confirmed: false}, nil
	}), time.Second)
	login(t, fx.session, "admin", domain.RoleAdmin)

	assert.True(t, fx.guard.Navigate(context.Background(), "nav-1", "/admin/dashboard").Allowed())
	login(t, fx.session, "student", domain.RoleStudent)
	close(release)
	fx.reverifier.Wait()

	assert.Zero(t, fx.sink.count(NoticeWarning))
}
