package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"matchbot/internal/constants"
	"matchbot/internal/models"
	"matchbot/pkg/chat"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// SocketOpener hands out a fresh socket-mode URL for each connection.
type SocketOpener interface {
	OpenSocketURL(ctx context.Context) (string, error)
}

// EventSink receives dispatched chat events.
type EventSink interface {
	HandleMessage(ctx context.Context, msg *models.InboundMessage)
	HandleDecision(ctx context.Context, decision *models.Decision)
}

// SocketListener ingests chat events over a socket-mode websocket connection
// as an alternative to the webhook server. Each envelope is acknowledged
// immediately and dispatched on its own goroutine; the connection is
// re-established with capped exponential backoff when it drops.
type SocketListener struct {
	opener  SocketOpener
	sink    EventSink
	logger  *logrus.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewSocketListener creates a socket-mode listener.
func NewSocketListener(opener SocketOpener, sink EventSink, logger *logrus.Logger) *SocketListener {
	return &SocketListener{
		opener: opener,
		sink:   sink,
		logger: logger,
	}
}

// Start begins the background connection loop.
func (sl *SocketListener) Start(ctx context.Context) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.running {
		return fmt.Errorf("socket listener is already running")
	}

	sl.ctx, sl.cancel = context.WithCancel(ctx)
	sl.running = true

	sl.wg.Add(1)
	go sl.connectLoop()

	sl.logger.Info("Socket-mode listener started")
	return nil
}

// Stop gracefully stops the listener.
func (sl *SocketListener) Stop() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.running {
		return
	}

	sl.cancel()
	sl.wg.Wait()
	sl.running = false
	sl.logger.Info("Socket-mode listener stopped")
}

// IsRunning returns whether the listener is currently active
func (sl *SocketListener) IsRunning() bool {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.running
}

func (sl *SocketListener) connectLoop() {
	defer sl.wg.Done()

	backoff := time.Duration(constants.DefaultSocketReconnectDelayMs) * time.Millisecond
	maxBackoff := time.Duration(constants.DefaultSocketMaxReconnectMs) * time.Millisecond

	for {
		select {
		case <-sl.ctx.Done():
			return
		default:
		}

		if err := sl.runConnection(); err != nil {
			sl.logger.WithError(err).WithField("backoff", backoff).Warn("Socket connection ended, reconnecting")
		} else {
			// Clean disconnect (server-requested); reconnect promptly.
			backoff = time.Duration(constants.DefaultSocketReconnectDelayMs) * time.Millisecond
		}

		select {
		case <-sl.ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// runConnection dials one socket-mode connection and reads envelopes until
// it drops or the server asks for a disconnect.
func (sl *SocketListener) runConnection() error {
	url, err := sl.opener.OpenSocketURL(sl.ctx)
	if err != nil {
		return fmt.Errorf("failed to open socket URL: %w", err)
	}

	conn, _, err := websocket.Dial(sl.ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial socket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutting down")

	sl.logger.Info("Socket-mode connection established")

	for {
		_, data, err := conn.Read(sl.ctx)
		if err != nil {
			if sl.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("socket read failed: %w", err)
		}

		env, err := chat.ParseSocketEnvelope(data)
		if err != nil {
			sl.logger.WithError(err).Warn("Dropping malformed socket envelope")
			continue
		}

		if env.EnvelopeID != "" {
			if err := sl.acknowledge(conn, env.EnvelopeID); err != nil {
				sl.logger.WithError(err).Warn("Failed to acknowledge envelope")
			}
		}

		switch env.Type {
		case chat.SocketTypeHello:
			sl.logger.Debug("Socket-mode hello received")
		case chat.SocketTypeDisconnect:
			sl.logger.Info("Server requested socket reconnect")
			return nil
		case chat.SocketTypeEventsAPI:
			sl.dispatchEvent(env.Payload)
		case chat.SocketTypeInteractive:
			sl.dispatchAction(env.Payload)
		default:
			sl.logger.WithField("type", env.Type).Debug("Ignoring unknown envelope type")
		}
	}
}

func (sl *SocketListener) acknowledge(conn *websocket.Conn, envelopeID string) error {
	ackCtx, cancel := context.WithTimeout(sl.ctx, 5*time.Second)
	defer cancel()

	ack, err := json.Marshal(chat.SocketAck{EnvelopeID: envelopeID})
	if err != nil {
		return err
	}
	return conn.Write(ackCtx, websocket.MessageText, ack)
}

func (sl *SocketListener) dispatchEvent(payload []byte) {
	eventPayload, err := chat.ParseEventPayload(payload)
	if err != nil {
		sl.logger.WithError(err).Warn("Dropping malformed event payload")
		return
	}
	if !eventPayload.Event.IsUserMessage() {
		return
	}

	msg := eventPayload.Event.ToInbound()
	sl.wg.Add(1)
	go func() {
		defer sl.wg.Done()
		sl.sink.HandleMessage(sl.ctx, msg)
	}()
}

func (sl *SocketListener) dispatchAction(payload []byte) {
	actionPayload, err := chat.ParseActionPayload(payload)
	if err != nil {
		sl.logger.WithError(err).Warn("Dropping malformed action payload")
		return
	}
	decision := actionPayload.ToDecision()
	if decision == nil {
		return
	}

	sl.wg.Add(1)
	go func() {
		defer sl.wg.Done()
		sl.sink.HandleDecision(sl.ctx, decision)
	}()
}
