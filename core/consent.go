package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultConsentWatchInterval = 1 * time.Second
	defaultConsentTimeout       = 10 * time.Minute
)

type ConsentOutcome string

const (
	ConsentOutcomeSuccess   ConsentOutcome = "success"
	ConsentOutcomeError     ConsentOutcome = "error"
	ConsentOutcomeAbandoned ConsentOutcome = "abandoned"
)

// ConsentSignal is the terminal event of one consent session.
type ConsentSignal struct {
	CredentialID string
	Outcome      ConsentOutcome
	Message      string
}

// ConsentSession tracks one in-flight authorization consent. It resolves at
// most once, either from a callback signal or from the abandonment watchdog,
// and Close is safe to call any number of times.
type ConsentSession struct {
	credentialID  string
	watchInterval time.Duration
	timeout       time.Duration

	signals     chan ConsentSignal
	done        chan struct{}
	resolveOnce sync.Once
	closeOnce   sync.Once
	onClose     func()
}

func newConsentSession(credentialID string, watchInterval, timeout time.Duration, onClose func()) *ConsentSession {
	if watchInterval <= 0 {
		watchInterval = defaultConsentWatchInterval
	}
	if timeout <= 0 {
		timeout = defaultConsentTimeout
	}
	return &ConsentSession{
		credentialID:  credentialID,
		watchInterval: watchInterval,
		timeout:       timeout,
		signals:       make(chan ConsentSignal, 1),
		done:          make(chan struct{}),
		onClose:       onClose,
	}
}

func (s *ConsentSession) CredentialID() string {
	if s == nil {
		return ""
	}
	return s.credentialID
}

// Signals delivers the terminal signal. The channel is buffered so resolution
// never blocks on an absent listener.
func (s *ConsentSession) Signals() <-chan ConsentSignal {
	if s == nil {
		return nil
	}
	return s.signals
}

// Done is closed once the session has been torn down.
func (s *ConsentSession) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}

func (s *ConsentSession) resolve(signal ConsentSignal) bool {
	if s == nil {
		return false
	}
	delivered := false
	s.resolveOnce.Do(func() {
		signal.CredentialID = s.credentialID
		s.signals <- signal
		delivered = true
		s.Close()
	})
	return delivered
}

// Close tears the session down and detaches it from its broker. Idempotent.
func (s *ConsentSession) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// Wait blocks until the session resolves, the context ends, or the session
// timeout elapses. A timeout counts as abandonment.
func (s *ConsentSession) Wait(ctx context.Context) (ConsentSignal, error) {
	if s == nil {
		return ConsentSignal{}, fmt.Errorf("core: consent session is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case signal := <-s.signals:
		return signal, nil
	case <-ctx.Done():
		s.Close()
		return ConsentSignal{}, ctx.Err()
	case <-timer.C:
		s.resolve(ConsentSignal{Outcome: ConsentOutcomeAbandoned, Message: "consent window closed before completion"})
		select {
		case signal := <-s.signals:
			return signal, nil
		default:
			return ConsentSignal{CredentialID: s.credentialID, Outcome: ConsentOutcomeAbandoned}, nil
		}
	}
}

// Watch polls stillOpen on the session's interval and resolves the session as
// abandoned the moment the consent surface reports closed. It returns when
// the session resolves or the context ends.
func (s *ConsentSession) Watch(ctx context.Context, stillOpen func(context.Context) bool) {
	if s == nil || stillOpen == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			if !stillOpen(ctx) {
				s.resolve(ConsentSignal{
					Outcome: ConsentOutcomeAbandoned,
					Message: "consent window closed before completion",
				})
				return
			}
		}
	}
}

// ConsentBroker indexes in-flight consent sessions by credential id so the
// callback path can signal the initiator that opened the flow.
type ConsentBroker struct {
	mu            sync.Mutex
	sessions      map[string]*ConsentSession
	watchInterval time.Duration
	timeout       time.Duration
}

func NewConsentBroker(cfg ConsentConfig) *ConsentBroker {
	watchInterval := cfg.WatchInterval
	if watchInterval <= 0 {
		watchInterval = defaultConsentWatchInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConsentTimeout
	}
	return &ConsentBroker{
		sessions:      map[string]*ConsentSession{},
		watchInterval: watchInterval,
		timeout:       timeout,
	}
}

// Open registers a session for the credential, replacing and closing any
// prior session for the same id.
func (b *ConsentBroker) Open(credentialID string) (*ConsentSession, error) {
	if b == nil {
		return nil, fmt.Errorf("core: consent broker is nil")
	}
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" {
		return nil, fmt.Errorf("core: credential id is required")
	}

	var session *ConsentSession
	session = newConsentSession(credentialID, b.watchInterval, b.timeout, func() {
		b.remove(credentialID, session)
	})

	b.mu.Lock()
	previous := b.sessions[credentialID]
	b.sessions[credentialID] = session
	b.mu.Unlock()

	if previous != nil {
		previous.resolve(ConsentSignal{
			Outcome: ConsentOutcomeAbandoned,
			Message: "superseded by a newer consent session",
		})
	}
	return session, nil
}

// Resolve delivers a terminal signal to the session registered for the
// credential, if any. It reports whether a listener was attached.
func (b *ConsentBroker) Resolve(credentialID string, signal ConsentSignal) bool {
	if b == nil {
		return false
	}
	credentialID = strings.TrimSpace(credentialID)
	b.mu.Lock()
	session := b.sessions[credentialID]
	b.mu.Unlock()
	if session == nil {
		return false
	}
	return session.resolve(signal)
}

func (b *ConsentBroker) Session(credentialID string) (*ConsentSession, bool) {
	if b == nil {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[strings.TrimSpace(credentialID)]
	return session, ok
}

func (b *ConsentBroker) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *ConsentBroker) remove(credentialID string, session *ConsentSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessions[credentialID] == session {
		delete(b.sessions, credentialID)
	}
}
