package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/internal/session"
	"github.com/dfquiroga/whatsapp-service/internal/types"
	"github.com/dfquiroga/whatsapp-service/pkg/router"
	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

type stubClient struct {
	mu      sync.Mutex
	handler func(whatsapp.Event)
}

func (s *stubClient) Start(ctx context.Context) error { return nil }
func (s *stubClient) Destroy() error                  { return nil }

func (s *stubClient) SetEventHandler(handler func(whatsapp.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *stubClient) emit(evt whatsapp.Event) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(evt)
	}
}

func (s *stubClient) IsRegisteredUser(ctx context.Context, address string) (bool, error) {
	return true, nil
}

func (s *stubClient) SendText(ctx context.Context, address, message string) (string, error) {
	return "", nil
}

func (s *stubClient) SendImage(ctx context.Context, address, caption, imagePath string) (string, error) {
	return "", nil
}

func newTestApp(t *testing.T) (*fiber.App, *stubClient) {
	t.Helper()

	client := &stubClient{}
	service.Sessions = session.NewManager(session.Config{
		SessionPath: filepath.Join(t.TempDir(), "session"),
		SettleDelay: time.Millisecond,
	}, func(sessionPath string) (whatsapp.Client, error) {
		return client, nil
	})
	require.NoError(t, service.Sessions.Initialize())

	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Get("/status", Status)
	return app, client
}

func getStatus(t *testing.T, app *fiber.App) types.ResponseStatus {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body types.ResponseStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestStatusInitializing(t *testing.T) {
	app, _ := newTestApp(t)

	body := getStatus(t, app)
	assert.False(t, body.Ready)
	assert.Nil(t, body.QR)
	assert.NotEmpty(t, body.Message)
}

func TestStatusAwaitingScan(t *testing.T) {
	app, client := newTestApp(t)
	client.emit(whatsapp.Event{Kind: whatsapp.EventQR, QRCode: "2@pairing-token"})

	body := getStatus(t, app)
	assert.False(t, body.Ready)
	require.NotNil(t, body.QR)
	assert.Equal(t, "2@pairing-token", *body.QR)
	assert.True(t, strings.HasPrefix(body.QRImage, "data:image/png;base64,"))
	assert.Contains(t, body.Message, "Scan")
}

func TestStatusReady(t *testing.T) {
	app, client := newTestApp(t)
	client.emit(whatsapp.Event{Kind: whatsapp.EventQR, QRCode: "2@pairing-token"})
	client.emit(whatsapp.Event{Kind: whatsapp.EventReady})

	body := getStatus(t, app)
	assert.True(t, body.Ready)
	assert.Nil(t, body.QR, "a ready session exposes no pairing token")
	assert.Empty(t, body.QRImage)
}
