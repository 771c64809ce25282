package call

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// VideoContext references visual evidence a caller uploaded before the call.
type VideoContext struct {
	ContentIDs []string `json:"contentIds"`
	HasFrames  bool     `json:"hasFrames"`
}

// Session holds the mutable state of one phone call. It is owned by a single
// lifecycle controller; the one-shot latches below are its only concurrency
// control, so every check-and-set happens under the mutex with no suspension
// in between.
type Session struct {
	mu sync.Mutex

	callID       string
	startedAt    time.Time
	callerPhone  string
	video        *VideoContext
	recordingURL string

	turns []Turn

	agentInitializing  bool
	agentReady         bool
	greetingSent       bool
	transferInProgress bool

	emergencyDetected bool
	emergencyReason   string
}

// NewSession creates the state for a freshly opened call connection.
func NewSession(callID string) *Session {
	return &Session{
		callID:    callID,
		startedAt: time.Now().UTC(),
		turns:     make([]Turn, 0, 16),
	}
}

// CallID returns the provider-assigned call identifier.
func (s *Session) CallID() string {
	return s.callID
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Duration reports elapsed wall-clock time since the session started.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startedAt)
}

// SetCallerPhone records the resolved caller number. Only the first call has
// any effect.
func (s *Session) SetCallerPhone(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callerPhone == "" {
		s.callerPhone = phone
	}
}

// CallerPhone returns the resolved caller number, empty when anonymous.
func (s *Session) CallerPhone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callerPhone
}

// SetVideoContext attaches prior visual-evidence references, first write wins.
func (s *Session) SetVideoContext(v *VideoContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		s.video = v
	}
}

// VideoContext returns the attached visual-evidence reference, if any.
func (s *Session) VideoContext() *VideoContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// SetRecordingURL captures the latest recording reference, last write wins.
func (s *Session) SetRecordingURL(url string) {
	if url == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordingURL = url
}

// RecordingURL returns the most recently captured recording reference.
func (s *Session) RecordingURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordingURL
}

// AppendTurn appends one utterance to the transcript and returns it.
// Insertion order is the conversation chronology and is never reordered.
func (s *Session) AppendTurn(role, content string) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()

	return turn
}

// Turns returns a copy of the transcript in insertion order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// BeginInitialization test-and-sets the initializing latch. It returns false
// when initialization is already running or has already completed, making the
// trigger idempotent under any interleaving.
func (s *Session) BeginInitialization() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agentInitializing || s.agentReady {
		return false
	}
	s.agentInitializing = true
	return true
}

// EndInitialization clears the initializing latch; deferred by the
// coordinator so it runs on every exit path.
func (s *Session) EndInitialization() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentInitializing = false
}

// MarkAgentReady latches the session as having a constructed agent.
func (s *Session) MarkAgentReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentReady = true
}

// AgentReady reports whether the agent has been constructed.
func (s *Session) AgentReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentReady
}

// Initializing reports whether initialization is currently in flight.
func (s *Session) Initializing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentInitializing
}

// MarkGreetingSent test-and-sets the greeting latch. The caller may emit the
// greeting only when this returns true.
func (s *Session) MarkGreetingSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.greetingSent {
		return false
	}
	s.greetingSent = true
	return true
}

// GreetingSent reports whether the greeting has been emitted.
func (s *Session) GreetingSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greetingSent
}

// BeginTransfer test-and-sets the transfer latch. At most one caller ever
// observes true, which guards the single transfer command per session.
func (s *Session) BeginTransfer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transferInProgress {
		return false
	}
	s.transferInProgress = true
	return true
}

// TransferInProgress reports whether a transfer has been initiated.
func (s *Session) TransferInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferInProgress
}

// RecordEmergency stores the emergency classification for end-of-session
// reporting. Only the first call has any effect.
func (s *Session) RecordEmergency(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.emergencyDetected {
		s.emergencyDetected = true
		s.emergencyReason = reason
	}
}

// Emergency returns whether an emergency transfer fired and its reason.
func (s *Session) Emergency() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emergencyDetected, s.emergencyReason
}
