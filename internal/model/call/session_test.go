package call

import (
	"sync"
	"testing"
)

func TestAppendTurnPreservesOrder(t *testing.T) {
	s := NewSession("call-1")

	s.AppendTurn(RoleAI, "greeting")
	s.AppendTurn(RoleHuman, "my faucet is leaking")
	s.AppendTurn(RoleAI, "let's check the shutoff valve")

	turns := s.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleAI || turns[1].Role != RoleHuman || turns[2].Role != RoleAI {
		t.Fatalf("unexpected role order: %s %s %s", turns[0].Role, turns[1].Role, turns[2].Role)
	}
	if turns[1].Content != "my faucet is leaking" {
		t.Fatalf("unexpected content: %s", turns[1].Content)
	}
	for _, turn := range turns {
		if turn.ID == "" {
			t.Fatalf("expected turn id to be set")
		}
		if turn.CreatedAt.IsZero() {
			t.Fatalf("expected turn timestamp to be set")
		}
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := NewSession("call-1")
	s.AppendTurn(RoleHuman, "hello")

	turns := s.Turns()
	turns[0].Content = "mutated"

	if s.Turns()[0].Content != "hello" {
		t.Fatalf("expected internal turns to be unaffected by caller mutation")
	}
}

func TestCallerPhoneFirstWriteWins(t *testing.T) {
	s := NewSession("call-1")
	s.SetCallerPhone("+15550100")
	s.SetCallerPhone("+15550199")

	if s.CallerPhone() != "+15550100" {
		t.Fatalf("expected first phone to stick, got %s", s.CallerPhone())
	}
}

func TestRecordingURLLastWriteWinsIgnoringEmpty(t *testing.T) {
	s := NewSession("call-1")
	s.SetRecordingURL("https://example.com/a.wav")
	s.SetRecordingURL("")
	s.SetRecordingURL("https://example.com/b.wav")

	if s.RecordingURL() != "https://example.com/b.wav" {
		t.Fatalf("unexpected recording url: %s", s.RecordingURL())
	}
}

func TestBeginInitializationIsOneShot(t *testing.T) {
	s := NewSession("call-1")

	if !s.BeginInitialization() {
		t.Fatalf("expected first begin to succeed")
	}
	if s.BeginInitialization() {
		t.Fatalf("expected second begin to fail while initializing")
	}

	s.MarkAgentReady()
	s.EndInitialization()

	if s.BeginInitialization() {
		t.Fatalf("expected begin to fail once agent is ready")
	}
}

func TestMarkGreetingSentIsOneShot(t *testing.T) {
	s := NewSession("call-1")

	if !s.MarkGreetingSent() {
		t.Fatalf("expected first mark to succeed")
	}
	if s.MarkGreetingSent() {
		t.Fatalf("expected second mark to fail")
	}
	if !s.GreetingSent() {
		t.Fatalf("expected greeting flag to be set")
	}
}

func TestBeginTransferConcurrentOnlyOneWins(t *testing.T) {
	s := NewSession("call-1")

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- s.BeginTransfer()
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for win := range wins {
		if win {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one transfer winner, got %d", won)
	}
	if !s.TransferInProgress() {
		t.Fatalf("expected transfer latch to be set")
	}
}

func TestRecordEmergencyFirstReasonWins(t *testing.T) {
	s := NewSession("call-1")
	s.RecordEmergency("gas_leak")
	s.RecordEmergency("flooding")

	detected, reason := s.Emergency()
	if !detected {
		t.Fatalf("expected emergency to be recorded")
	}
	if reason != "gas_leak" {
		t.Fatalf("expected first reason to stick, got %s", reason)
	}
}
