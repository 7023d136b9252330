package session

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

// Config carries the lifecycle tunables. Zero values are replaced with the
// defaults below.
type Config struct {
	// SessionPath is the credential store directory, deleted wholesale on
	// logout.
	SessionPath string

	// SettleDelay is the pause between teardown and re-initialization during
	// restart and logout.
	SettleDelay time.Duration

	// ReconnectInitialDelay seeds the exponential backoff after a disconnect.
	ReconnectInitialDelay time.Duration

	// ReconnectMaxDelay caps the backoff interval.
	ReconnectMaxDelay time.Duration

	// ReconnectMaxRetries bounds consecutive reconnect attempts between
	// successful connections. Zero means unlimited.
	ReconnectMaxRetries int

	// RenderQR controls terminal rendering of pairing tokens.
	RenderQR bool
}

func (c Config) withDefaults() Config {
	if c.SessionPath == "" {
		c.SessionPath = "./whatsapp-session"
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1 * time.Second
	}
	if c.ReconnectInitialDelay <= 0 {
		c.ReconnectInitialDelay = 5 * time.Second
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = 5 * time.Minute
	}
	return c
}

// ClientFactory builds a fresh client bound to the session path. The manager
// calls it on first initialization and again after every teardown.
type ClientFactory func(sessionPath string) (whatsapp.Client, error)

// Manager drives the connection lifecycle. All state mutation happens through
// the event handler and the restart/logout operations; readers observe the
// current snapshot without further coordination.
type Manager struct {
	cfg     Config
	factory ClientFactory
	machine *Machine

	mu        sync.RWMutex
	client    whatsapp.Client
	pendingQR string
	retries   int

	ackMu      sync.RWMutex
	ackHandler func(messageID string, code int)

	backoff   *backoff.ExponentialBackOff
	reconnect *time.Timer

	lifecycleMu sync.Mutex
	lifecycle   singleflight.Group
}

// NewManager builds a manager; the client is not constructed until
// Initialize.
func NewManager(cfg Config, factory ClientFactory) *Manager {
	cfg = cfg.withDefaults()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.ReconnectInitialDelay
	bo.MaxInterval = cfg.ReconnectMaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	m := &Manager{
		cfg:     cfg,
		factory: factory,
		machine: NewMachine(),
		backoff: bo,
	}

	m.machine.OnTransitioned(func(from, to State, trigger Trigger) {
		log.Session("transition").
			WithField("from", from.String()).
			WithField("to", to.String()).
			WithField("trigger", trigger.String()).
			Info("session state changed")
	})

	return m
}

// SetAckHandler registers the consumer of per-message acknowledgment events.
func (m *Manager) SetAckHandler(handler func(messageID string, code int)) {
	m.ackMu.Lock()
	defer m.ackMu.Unlock()
	m.ackHandler = handler
}

// Initialize constructs the client if needed, subscribes the event stream and
// starts the asynchronous connect. Safe to call again only after teardown.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	if m.client == nil {
		client, err := m.factory(m.cfg.SessionPath)
		if err != nil {
			m.mu.Unlock()
			log.Session("initialize").WithError(err).Error("failed to construct client")
			return err
		}
		client.SetEventHandler(m.handleEvent)
		m.client = client
	}
	client := m.client
	m.mu.Unlock()

	if err := m.machine.Fire(TriggerInitialize); err != nil {
		return err
	}

	log.Session("initialize").Info("starting WhatsApp client")
	if err := client.Start(context.Background()); err != nil {
		log.Session("initialize").WithError(err).Error("client startup failed")
		m.scheduleReconnect("startup failed")
		return err
	}
	return nil
}

// Ready reports whether the session can send and receive.
func (m *Manager) Ready() bool {
	return m.machine.State() == StateReady
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.machine.State()
}

// PendingQR returns the pairing token awaiting an out-of-band scan, or empty.
func (m *Manager) PendingQR() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingQR
}

// Client returns the current client handle, or nil before initialization and
// during teardown. An in-flight send holding a stale handle fails on its next
// call; that race is accepted rather than coordinated.
func (m *Manager) Client() whatsapp.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

func (m *Manager) handleEvent(evt whatsapp.Event) {
	switch evt.Kind {
	case whatsapp.EventQR:
		if err := m.machine.Fire(TriggerQR); err != nil {
			log.Session("event").WithError(err).Debug("qr event ignored")
			return
		}
		m.mu.Lock()
		m.pendingQR = evt.QRCode
		m.mu.Unlock()
		log.Session("event").Info("pairing token received, scan it with the WhatsApp mobile app")
		if m.cfg.RenderQR {
			qrterminal.GenerateHalfBlock(evt.QRCode, qrterminal.L, os.Stdout)
		}

	case whatsapp.EventAuthenticated:
		log.Session("event").Info("authenticated, waiting for session to become ready")

	case whatsapp.EventReady:
		m.mu.Lock()
		m.pendingQR = ""
		m.retries = 0
		if m.reconnect != nil {
			m.reconnect.Stop()
			m.reconnect = nil
		}
		m.mu.Unlock()
		m.backoff.Reset()
		if err := m.machine.Fire(TriggerReady); err != nil {
			log.Session("event").WithError(err).Debug("ready event ignored")
			return
		}
		log.Session("event").Info("WhatsApp session is ready")

	case whatsapp.EventAuthFailure:
		m.mu.Lock()
		m.pendingQR = ""
		m.mu.Unlock()
		if err := m.machine.Fire(TriggerAuthFailure); err != nil {
			log.Session("event").WithError(err).Debug("auth failure event ignored")
			return
		}
		// No automatic retry on credential rejection, an operator has to
		// restart or logout.
		log.Session("event").WithField("reason", evt.Reason).Error("authentication failed")

	case whatsapp.EventDisconnected:
		if err := m.machine.Fire(TriggerDisconnected); err != nil {
			log.Session("event").WithError(err).Debug("disconnect event ignored")
			return
		}
		log.Session("event").WithField("reason", evt.Reason).Warn("client disconnected")
		m.scheduleReconnect(evt.Reason)

	case whatsapp.EventAck:
		m.ackMu.RLock()
		handler := m.ackHandler
		m.ackMu.RUnlock()
		if handler != nil {
			handler(evt.MessageID, evt.AckCode)
		}
	}
}

func (m *Manager) scheduleReconnect(reason string) {
	m.mu.Lock()
	if m.cfg.ReconnectMaxRetries > 0 && m.retries >= m.cfg.ReconnectMaxRetries {
		m.mu.Unlock()
		log.Session("reconnect").
			WithField("retries", m.cfg.ReconnectMaxRetries).
			Error("reconnect retry budget exhausted, restart required")
		return
	}
	m.retries++
	attempt := m.retries
	delay := m.backoff.NextBackOff()
	m.reconnect = time.AfterFunc(delay, func() {
		log.Session("reconnect").WithField("attempt", attempt).Info("retrying connection")
		if err := m.Initialize(); err != nil {
			log.Session("reconnect").WithError(err).Warn("reconnect attempt failed")
		}
	})
	m.mu.Unlock()

	log.Session("reconnect").
		WithField("reason", reason).
		WithField("attempt", attempt).
		WithField("delay", delay.String()).
		Warn("scheduling reconnect")
}

// teardown destroys the current client and resets the lifecycle to
// Uninitialized. Destroy failures are returned but never block the reset.
func (m *Manager) teardown() error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.pendingQR = ""
	m.retries = 0
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.mu.Unlock()
	m.backoff.Reset()

	_ = m.machine.Fire(TriggerTeardown)

	var destroyErr error
	if client != nil {
		client.SetEventHandler(nil)
		destroyErr = client.Destroy()
		if destroyErr != nil {
			log.Session("teardown").WithError(destroyErr).Error("client teardown failed")
		}
	}

	_ = m.machine.Fire(TriggerReset)
	return destroyErr
}

// Restart tears the session down and re-initializes it, retaining the
// credential store. Concurrent restarts collapse into one cycle; a teardown
// failure is reported but the re-initialization still happens.
func (m *Manager) Restart() error {
	_, err, _ := m.lifecycle.Do("restart", func() (interface{}, error) {
		m.lifecycleMu.Lock()
		defer m.lifecycleMu.Unlock()

		tearErr := m.teardown()
		time.Sleep(m.cfg.SettleDelay)
		if err := m.Initialize(); err != nil && tearErr == nil {
			tearErr = err
		}
		return nil, tearErr
	})
	return err
}

// Logout is Restart plus irreversible deletion of the credential store, which
// forces a fresh QR pairing. Store removal failures are logged, not
// escalated.
func (m *Manager) Logout() error {
	_, err, _ := m.lifecycle.Do("logout", func() (interface{}, error) {
		m.lifecycleMu.Lock()
		defer m.lifecycleMu.Unlock()

		tearErr := m.teardown()
		if rmErr := os.RemoveAll(m.cfg.SessionPath); rmErr != nil {
			log.Session("logout").WithError(rmErr).Warn("failed to remove session credential store")
		} else {
			log.Session("logout").WithField("path", m.cfg.SessionPath).Info("session credential store removed")
		}
		time.Sleep(m.cfg.SettleDelay)
		if err := m.Initialize(); err != nil && tearErr == nil {
			tearErr = err
		}
		return nil, tearErr
	})
	return err
}
