package relay

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

func TestStatusForAck(t *testing.T) {
	tests := []struct {
		code   int
		status Status
		known  bool
	}{
		{whatsapp.AckError, StatusFailed, true},
		{whatsapp.AckPending, StatusPending, true},
		{whatsapp.AckServer, StatusSent, true},
		{whatsapp.AckDevice, StatusDelivered, true},
		{whatsapp.AckRead, StatusRead, true},
		{whatsapp.AckPlayed, StatusRead, true},
		{-1, "", false},
		{42, "", false},
	}
	for _, tt := range tests {
		status, ok := StatusForAck(tt.code)
		assert.Equal(t, tt.known, ok, "code %d", tt.code)
		assert.Equal(t, tt.status, status, "code %d", tt.code)
	}
}

func TestForwardPostsStatusPayload(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	var gotBody statusPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		gotPath = req.URL.Path
		_ = json.Unmarshal(body, &gotBody)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, time.Second)
	require.NoError(t, r.forward("ABC123", StatusDelivered, whatsapp.AckDevice))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/webhooks/whatsapp-status", gotPath)
	assert.Equal(t, "ABC123", gotBody.MessageID)
	assert.Equal(t, StatusDelivered, gotBody.Status)
	assert.Equal(t, whatsapp.AckDevice, gotBody.Ack)
}

func TestForwardSuppressesConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadURL := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	r := New(deadURL, time.Second)
	assert.NoError(t, r.forward("ABC123", StatusSent, whatsapp.AckServer))
}

func TestForwardReportsBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New(srv.URL, time.Second)
	err := r.forward("ABC123", StatusRead, whatsapp.AckRead)
	assert.ErrorContains(t, err, "500")
}

func TestForwardNoBackendConfigured(t *testing.T) {
	r := New("", 0)
	assert.NoError(t, r.forward("ABC123", StatusSent, whatsapp.AckServer))
}

func TestHandleAckDropsUnknownCodes(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, time.Second)
	r.HandleAck("ABC123", 42)
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestHandleAckDeliversAsynchronously(t *testing.T) {
	done := make(chan statusPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var p statusPayload
		_ = json.NewDecoder(req.Body).Decode(&p)
		done <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, time.Second)
	r.HandleAck("ABC123", whatsapp.AckRead)

	select {
	case p := <-done:
		assert.Equal(t, StatusRead, p.Status)
		assert.Equal(t, whatsapp.AckRead, p.Ack)
	case <-time.After(2 * time.Second):
		t.Fatal("relay never reached the backend")
	}
}
