package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

const (
	// DefaultSubject carries board events
	DefaultSubject = "board.events"
	// DefaultStream is the JetStream stream holding board events
	DefaultStream = "BOARD_EVENTS"
)

// NATSBus publishes board events to a JetStream subject and relays every
// message on that subject to local subscribers
type NATSBus struct {
	server  *server.Server // only set for the embedded server
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
	local   *fanout
}

// EmbeddedOptions configures the in-process NATS server used in development
type EmbeddedOptions struct {
	Port       int    // -1 or 0 picks a random free port
	Subject    string
	StreamName string
	StoreDir   string // empty keeps JetStream in memory
}

// DefaultEmbeddedOptions returns development defaults
func DefaultEmbeddedOptions() EmbeddedOptions {
	return EmbeddedOptions{
		Port:       -1,
		Subject:    DefaultSubject,
		StreamName: DefaultStream,
	}
}

// NewNATSBus connects to an external NATS server with file-backed JetStream
func NewNATSBus(natsURL, subject string) (*NATSBus, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(natsURL, nats.Name("adp-draft-board"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := newBus(nc, subject, &nats.StreamConfig{
		Name:     DefaultStream,
		Subjects: []string{subject},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS", "url", natsURL, "subject", subject)
	return bus, nil
}

// NewEmbeddedNATSBus starts a NATS server in-process and connects to it
func NewEmbeddedNATSBus(opts EmbeddedOptions) (*NATSBus, error) {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.StreamName == "" {
		opts.StreamName = DefaultStream
	}
	port := opts.Port
	if port == 0 {
		port = -1
	}

	serverOpts := &server.Options{
		Port:      port,
		JetStream: true,
		NoSigs:    true,
	}
	storage := nats.MemoryStorage
	if opts.StoreDir != "" {
		serverOpts.StoreDir = opts.StoreDir
		storage = nats.FileStorage
	}

	ns, err := server.NewServer(serverOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	bus, err := newBus(nc, opts.Subject, &nats.StreamConfig{
		Name:     opts.StreamName,
		Subjects: []string{opts.Subject},
		Storage:  storage,
		MaxAge:   time.Hour,
	})
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}
	bus.server = ns

	logger.Info("Embedded NATS server started", "url", ns.ClientURL(), "stream", opts.StreamName)
	return bus, nil
}

func newBus(nc *nats.Conn, subject string, stream *nats.StreamConfig) (*NATSBus, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(stream.Name); err != nil {
		if _, err := js.AddStream(stream); err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", stream.Name, err)
		}
	}

	bus := &NATSBus{
		nc:      nc,
		js:      js,
		subject: subject,
		local:   newFanout(100),
	}

	bus.sub, err = js.Subscribe(subject, bus.handle, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return bus, nil
}

func (b *NATSBus) handle(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode board event", "error", err, "subject", b.subject)
		msg.Term()
		return
	}
	b.local.broadcast(event)
	msg.Ack()
}

// Publish writes the event to JetStream
func (b *NATSBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode board event", "error", err, "type", event.Type)
		return
	}
	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish board event", "error", err, "subject", b.subject, "type", event.Type)
		return
	}
	logger.Debug("Published board event", "type", event.Type, "subject", b.subject)
}

// Subscribe returns a channel receiving events from the subject
func (b *NATSBus) Subscribe() chan Event {
	return b.local.add()
}

// Unsubscribe removes and closes a subscriber channel
func (b *NATSBus) Unsubscribe(ch chan Event) {
	b.local.remove(ch)
}

// ServerURL returns the embedded server URL, or the connected URL for external servers
func (b *NATSBus) ServerURL() string {
	if b.server != nil {
		return b.server.ClientURL()
	}
	return b.nc.ConnectedUrl()
}

// Healthy reports an error unless the client connection is up
func (b *NATSBus) Healthy(ctx context.Context) error {
	if status := b.nc.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	return b.nc.FlushWithContext(ctx)
}

// SubscriberCount reports the number of local subscribers
func (b *NATSBus) SubscriberCount() int {
	return b.local.count()
}

// Close drains the connection and stops the embedded server if any
func (b *NATSBus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.local.closeAll()

	if b.nc != nil {
		b.nc.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
		b.server.WaitForShutdown()
		logger.Info("Embedded NATS server shut down")
	}
}

// natsLogger routes NATS server logs through slog
type natsLogger struct{}

func (l *natsLogger) Noticef(format string, v ...any) {
	logger.Info(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Warnf(format string, v ...any) {
	logger.Warn(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Fatalf(format string, v ...any) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Errorf(format string, v ...any) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Debugf(format string, v ...any) {
	logger.Debug(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Tracef(format string, v ...any) {
	logger.Debug(fmt.Sprintf("[NATS TRACE] "+format, v...))
}
