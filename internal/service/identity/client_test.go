package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hausly/voicedesk/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.TelephonyConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
}

func TestLookupCallerReturnsFromNumber(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v2/get-call/call-123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		io.WriteString(w, `{"call_id":"call-123","from_number":"+15550100","to_number":"+15550999"}`)
	}))
	defer server.Close()

	phone, err := newTestClient(server).LookupCaller(context.Background(), "call-123")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if phone != "+15550100" {
		t.Fatalf("unexpected phone: %s", phone)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
}

func TestLookupCallerNoNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"call_id":"call-123","from_number":""}`)
	}))
	defer server.Close()

	_, err := newTestClient(server).LookupCaller(context.Background(), "call-123")
	if !errors.Is(err, ErrNoCallerNumber) {
		t.Fatalf("expected ErrNoCallerNumber, got %v", err)
	}
}

func TestLookupCallerNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := newTestClient(server).LookupCaller(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestCreatePhoneCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/create-phone-call" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"call_id":"call-new"}`)
	}))
	defer server.Close()

	callID, err := newTestClient(server).CreatePhoneCall(context.Background(), "+15550001", "+15550002")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if callID != "call-new" {
		t.Fatalf("unexpected call id: %s", callID)
	}
}
