package send

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

type stubClient struct {
	mu sync.Mutex

	unregistered map[string]bool
	registerErr  error
	sendErr      map[string]error

	sentTexts  []string
	sentAt     []time.Time
	sentImages []string

	nextID int
}

func (s *stubClient) Start(ctx context.Context) error { return nil }
func (s *stubClient) Destroy() error                  { return nil }
func (s *stubClient) SetEventHandler(func(whatsapp.Event)) {}

func (s *stubClient) IsRegisteredUser(ctx context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registerErr != nil {
		return false, s.registerErr
	}
	return !s.unregistered[address], nil
}

func (s *stubClient) SendText(ctx context.Context, address, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendErr[address]; err != nil {
		return "", err
	}
	s.sentTexts = append(s.sentTexts, address)
	s.sentAt = append(s.sentAt, time.Now())
	s.nextID++
	return fmt.Sprintf("MSG%03d", s.nextID), nil
}

func (s *stubClient) SendImage(ctx context.Context, address, caption, imagePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentImages = append(s.sentImages, imagePath)
	s.nextID++
	return fmt.Sprintf("MSG%03d", s.nextID), nil
}

type stubSessions struct {
	ready  bool
	client whatsapp.Client
}

func (s *stubSessions) Ready() bool             { return s.ready }
func (s *stubSessions) Client() whatsapp.Client { return s.client }

func newTestOrchestrator(client *stubClient, delay time.Duration) *Orchestrator {
	return NewOrchestrator(&stubSessions{ready: true, client: client}, delay)
}

func TestSendTextHappyPath(t *testing.T) {
	client := &stubClient{}
	o := newTestOrchestrator(client, time.Millisecond)

	res, err := o.SendText(context.Background(), "+1 555-123 4567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "MSG001", res.MessageID)
	assert.Equal(t, "15551234567@c.us", res.To)
	assert.Equal(t, []string{"15551234567@c.us"}, client.sentTexts)
}

func TestSendTextNotConnected(t *testing.T) {
	o := NewOrchestrator(&stubSessions{ready: false}, time.Millisecond)

	_, err := o.SendText(context.Background(), "15551234567", "hello")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendNotConnectedWinsOverInvalidPayload(t *testing.T) {
	// Readiness is the first precondition: a not-ready session rejects with
	// not-connected even when the payload would also fail validation.
	o := NewOrchestrator(&stubSessions{ready: false}, time.Millisecond)

	_, err := o.SendText(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = o.SendImage(context.Background(), "", "", "/tmp/img.jpg")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendTextValidation(t *testing.T) {
	client := &stubClient{}
	o := newTestOrchestrator(client, time.Millisecond)

	_, err := o.SendText(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = o.SendText(context.Background(), "15551234567", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, client.sentTexts, "rejected input must never reach the provider")
}

func TestSendTextUnregisteredRecipient(t *testing.T) {
	client := &stubClient{unregistered: map[string]bool{"15551234567@c.us": true}}
	o := newTestOrchestrator(client, time.Millisecond)

	_, err := o.SendText(context.Background(), "15551234567", "hello")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Empty(t, client.sentTexts, "unregistered recipient must never be dispatched to")
}

func TestSendTextProviderFailure(t *testing.T) {
	client := &stubClient{sendErr: map[string]error{"15551234567@c.us": errors.New("stream closed")}}
	o := newTestOrchestrator(client, time.Millisecond)

	_, err := o.SendText(context.Background(), "15551234567", "hello")
	assert.ErrorIs(t, err, ErrProviderSend)
	assert.ErrorContains(t, err, "stream closed")
}

func TestSendImageHappyPath(t *testing.T) {
	client := &stubClient{}
	o := newTestOrchestrator(client, time.Millisecond)

	res, err := o.SendImage(context.Background(), "15551234567", "a caption", "/tmp/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, "15551234567@c.us", res.To)
	assert.Equal(t, []string{"/tmp/img.jpg"}, client.sentImages)
}

func TestSendBulkPartialFailure(t *testing.T) {
	client := &stubClient{sendErr: map[string]error{"2222222222@c.us": errors.New("boom")}}
	o := newTestOrchestrator(client, time.Millisecond)

	report, err := o.SendBulk(context.Background(), []BulkEntry{
		{Phone: "1111111111", Message: "one"},
		{Phone: "2222222222", Message: "two"},
		{Phone: "3333333333", Message: "three"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)

	assert.True(t, report.Results[0].Success)
	assert.Equal(t, "1111111111", report.Results[0].Phone, "entries echo the raw input phone")

	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "2222222222", report.Results[1].Phone)
	assert.Contains(t, report.Results[1].Error, "boom")
	assert.Empty(t, report.Results[1].MessageID)

	assert.True(t, report.Results[2].Success)
}

func TestSendBulkNotConnected(t *testing.T) {
	o := NewOrchestrator(&stubSessions{ready: false}, time.Millisecond)

	_, err := o.SendBulk(context.Background(), []BulkEntry{{Phone: "1111111111", Message: "one"}})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendBulkSpacing(t *testing.T) {
	client := &stubClient{}
	delay := 60 * time.Millisecond
	o := newTestOrchestrator(client, delay)

	_, err := o.SendBulk(context.Background(), []BulkEntry{
		{Phone: "1111111111", Message: "one"},
		{Phone: "2222222222", Message: "two"},
		{Phone: "3333333333", Message: "three"},
	})
	require.NoError(t, err)
	require.Len(t, client.sentAt, 3)

	for i := 1; i < len(client.sentAt); i++ {
		gap := client.sentAt[i].Sub(client.sentAt[i-1])
		assert.GreaterOrEqual(t, gap, delay-10*time.Millisecond, "dispatch %d fired too early", i)
	}
}

func TestSendBulkRespectsContextCancellation(t *testing.T) {
	client := &stubClient{}
	o := newTestOrchestrator(client, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	report, err := o.SendBulk(ctx, []BulkEntry{
		{Phone: "1111111111", Message: "one"},
		{Phone: "2222222222", Message: "two"},
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, report.Sent+report.Failed, 1)
}
