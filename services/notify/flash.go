package notifysvc

import (
	"sync"

	"github.com/trezcool/studiousvault/core"
)

// maxPending bounds the queue when nobody drains it (API-only usage).
const maxPending = 20

// flashService queues notices until a view drains them, and logs each one.
type flashService struct {
	logger core.Logger

	mu      sync.Mutex
	pending []core.Notice
}

var _ core.Notifier = (*flashService)(nil)

func NewFlashService(logger core.Logger) core.Notifier {
	return &flashService{logger: logger}
}

func (svc *flashService) Notify(n core.Notice) {
	if n.Level == core.NoticeError {
		svc.logger.Warn("notice", map[string]interface{}{"level": n.Level, "message": n.Message})
	} else {
		svc.logger.Debug("notice", map[string]interface{}{"level": n.Level, "message": n.Message})
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.pending = append(svc.pending, n)
	if len(svc.pending) > maxPending {
		svc.pending = svc.pending[len(svc.pending)-maxPending:]
	}
}

func (svc *flashService) Drain() []core.Notice {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	notices := svc.pending
	svc.pending = nil
	return notices
}
