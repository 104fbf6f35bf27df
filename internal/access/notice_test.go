package access

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/edushare/internal/domain"
)

type recordingSink struct {
	mu      sync.Mutex
	notices []Notice
}

func (s *recordingSink) Notify(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func (s *recordingSink) all() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

func (s *recordingSink) count(kind NoticeKind) int {
	n := 0
	for _, notice := range s.all() {
		if notice.Kind == kind {
			n++
		}
	}
	return n
}

func TestNotifierDeduplicatesPerEventAndKind(t *testing.T) {
	sink := &recordingSink{}
	n, err := NewNotifier(sink, 8)
	require.NoError(t, err)

	assert.True(t, n.Emit(Notice{EventID: "nav-1", Kind: NoticeRejection, Message: "a"}))
	assert.False(t, n.Emit(Notice{EventID: "nav-1", Kind: NoticeRejection, Message: "a"}))
	assert.True(t, n.Emit(Notice{EventID: "nav-1", Kind: NoticeWarning, Message: "b"}))
	assert.True(t, n.Emit(Notice{EventID: "nav-2", Kind: NoticeRejection, Message: "a"}))

	assert.Len(t, sink.all(), 3)
}

func TestNilNotifierIsSilent(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Emit(Notice{EventID: "x"}))
}

func TestRejectionMessage(t *testing.T) {
	assert.Equal(t, "This section requires faculty or admin access",
		RejectionMessage([]domain.Role{domain.RoleFaculty, domain.RoleAdmin}))
	assert.Equal(t, "This section requires admin access", RejectionMessage(nil))
}
