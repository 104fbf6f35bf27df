package access

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spec-kit/edushare/internal/domain"
)

// NoticeKind separates hard rejections from advisory warnings.
type NoticeKind string

const (
	NoticeRejection NoticeKind = "rejection"
	NoticeWarning   NoticeKind = "warning"
)

// Notice is a one-shot, user-facing message tied to a single decision event.
type Notice struct {
	EventID string
	Kind    NoticeKind
	Message string
}

// NoticeSink delivers notices to the user.
type NoticeSink interface {
	Notify(Notice)
}

// NoticeFunc adapts a function to NoticeSink.
type NoticeFunc func(Notice)

// Notify calls f(n).
func (f NoticeFunc) Notify(n Notice) { f(n) }

const defaultNoticeCacheSize = 1024

// Notifier forwards each (event, kind) pair to the sink at most once.
// Remembered events are bounded; the oldest are forgotten first.
type Notifier struct {
	sink NoticeSink
	seen *lru.Cache[string, struct{}]
}

// NewNotifier builds a Notifier remembering up to size events.
func NewNotifier(sink NoticeSink, size int) (*Notifier, error) {
	if size <= 0 {
		size = defaultNoticeCacheSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("notice cache: %w", err)
	}
	return &Notifier{sink: sink, seen: seen}, nil
}

// Emit delivers n unless a notice of the same kind was already delivered for n.EventID.
// It reports whether the notice was delivered.
func (n *Notifier) Emit(notice Notice) bool {
	if n == nil || n.sink == nil {
		return false
	}
	key := string(notice.Kind) + "|" + notice.EventID
	if found, _ := n.seen.ContainsOrAdd(key, struct{}{}); found {
		return false
	}
	n.sink.Notify(notice)
	return true
}

// RejectionMessage names the unmet requirement.
func RejectionMessage(required []domain.Role) string {
	if len(required) == 0 {
		return "This section requires admin access"
	}
	return fmt.Sprintf("This section requires %s access", domain.JoinRoles(required))
}
