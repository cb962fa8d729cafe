package risk

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Severity orders an alert's urgency. Info < Warning < Error < Critical,
// so a handler's minimum-severity filter is a plain integer comparison.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Alert is a single raised condition.
type Alert struct {
	ID           string
	Kind         string
	Severity     Severity
	Message      string
	Timestamp    time.Time
	Acknowledged bool
}

// Handler receives alerts at or above MinSeverity.
type Handler struct {
	Name        string
	MinSeverity Severity
	Notify      func(Alert)
}

// AlertManager holds a bounded FIFO history, a dedup map keyed by alert
// kind, and a fan-out list of severity-filtered handlers. A single mutex
// guards alert state directly rather than hiding it behind a separate
// actor; callers sharing it across goroutines get that guarantee from
// the embedded lock.
type AlertManager struct {
	mu sync.RWMutex

	history     []Alert
	maxHistory  int
	lastRaised  map[string]time.Time
	dedupWindow time.Duration
	handlers    []Handler

	log *logrus.Entry
}

// NewAlertManager builds a manager bounding history to maxHistory entries
// and suppressing repeats of the same kind within dedupWindow.
func NewAlertManager(maxHistory int, dedupWindow time.Duration) *AlertManager {
	return &AlertManager{
		maxHistory:  maxHistory,
		dedupWindow: dedupWindow,
		lastRaised:  make(map[string]time.Time),
		log:         logrus.WithField("component", "risk.alerts"),
	}
}

// RegisterHandler adds a handler to the fan-out list.
func (m *AlertManager) RegisterHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Raise creates and dispatches an alert, unless an alert of the same kind
// was already raised within the dedup window, in which case it is
// silently dropped. Returns the alert that was raised, or the zero value
// and false if it was deduped.
func (m *AlertManager) Raise(kind string, severity Severity, message string, now time.Time) (Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.lastRaised[kind]; ok && now.Sub(last) < m.dedupWindow {
		return Alert{}, false
	}
	m.lastRaised[kind] = now

	alert := Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Timestamp: now,
	}

	m.history = append(m.history, alert)
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}

	m.log.WithFields(logrus.Fields{
		"kind":     kind,
		"severity": severity,
	}).Warn(message)

	for _, h := range m.handlers {
		if severity >= h.MinSeverity {
			h.Notify(alert)
		}
	}
	return alert, true
}

// Acknowledge marks the alert with the given id as acknowledged.
func (m *AlertManager) Acknowledge(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == id {
			m.history[i].Acknowledged = true
			return true
		}
	}
	return false
}

// History returns a copy of the bounded alert history, oldest first.
func (m *AlertManager) History() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.history))
	copy(out, m.history)
	return out
}
