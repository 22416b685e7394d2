// Package aprsis implements a long-lived TCP client for the APRS-IS
// network: login handshake, newline-delimited packet reads, and
// server-message handling. Reconnection policy belongs to the caller.
package aprsis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aprswatch/aprswatch/internal/log"
)

// DefaultServer is the public APRS-IS round-robin endpoint.
const DefaultServer = "rotate.aprs2.net:14580"

const (
	defaultDialTimeout = 10 * time.Second
	defaultReadTimeout = 30 * time.Second
)

// ErrAlreadyConnected is returned by Connect while a connection is
// already established. Exactly one connection at a time.
var ErrAlreadyConnected = errors.New("already connected to APRS-IS")

// Config holds the connection parameters for an APRS-IS session.
type Config struct {
	Server   string // host:port, DefaultServer when empty
	Callsign string
	Passcode string // "-1" for receive-only
	Filter   string // server-side filter expression, optional
	Software string
	Version  string

	DialTimeout time.Duration
	ReadTimeout time.Duration // keepalive guard on socket reads
}

// Client is a single-connection APRS-IS stream client. Events are
// delivered through the configured handlers from the read goroutine,
// so handlers must not block for long.
type Client struct {
	cfg Config

	onMessage    func(line string)
	onValidated  func(verified bool)
	onDisconnect func(err error)

	mu        sync.Mutex
	connected bool
	conn      net.Conn
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option customizes a Client.
type Option func(*Client)

// WithMessageHandler sets the handler invoked for every non-comment
// line read from the server.
func WithMessageHandler(fn func(line string)) Option {
	return func(c *Client) {
		c.onMessage = fn
	}
}

// WithValidatedHandler sets the handler invoked once the server
// answers the login with a logresp line.
func WithValidatedHandler(fn func(verified bool)) Option {
	return func(c *Client) {
		c.onValidated = fn
	}
}

// WithDisconnectHandler sets the handler invoked when the connection
// ends for any reason. It fires exactly once per established
// connection; err is nil on clean shutdown.
func WithDisconnectHandler(fn func(err error)) Option {
	return func(c *Client) {
		c.onDisconnect = fn
	}
}

// NewClient creates an APRS-IS client. Connect must be called to
// establish the session.
func NewClient(cfg Config, options ...Option) *Client {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.Passcode == "" {
		cfg.Passcode = "-1"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}

	c := &Client{cfg: cfg}
	for _, option := range options {
		option(c)
	}
	return c
}

// Connect dials the server, sends the login line, and starts the read
// goroutine. A second Connect while connected fails with
// ErrAlreadyConnected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.connected = true
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Server)
	if err != nil {
		c.reset()
		return fmt.Errorf("dialing APRS-IS server %v: %w", c.cfg.Server, err)
	}

	if _, err := conn.Write([]byte(c.loginLine())); err != nil {
		conn.Close()
		c.reset()
		return fmt.Errorf("sending login to %v: %w", c.cfg.Server, err)
	}

	log.Infof("connected to APRS-IS server %v as %v", c.cfg.Server, c.cfg.Callsign)

	readCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.readLoop(readCtx, conn, done)
	return nil
}

// loginLine builds the APRS-IS login command.
func (c *Client) loginLine() string {
	login := fmt.Sprintf("user %v pass %v vers %v %v",
		c.cfg.Callsign, c.cfg.Passcode, c.cfg.Software, c.cfg.Version)
	if c.cfg.Filter != "" {
		login += fmt.Sprintf(" filter %v", c.cfg.Filter)
	}
	return login + "\r\n"
}

// readLoop consumes newline-delimited lines until EOF, error, or
// cancellation, then tears the connection down and fires the
// disconnect handler.
func (c *Client) readLoop(ctx context.Context, conn net.Conn, done chan struct{}) {
	defer close(done)

	reader := bufio.NewReader(conn)

	var cause error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		// The deadline doubles as a keepalive guard: APRS-IS servers
		// send a comment line at least every 20-30 s, so a quiet
		// socket means we retry the read rather than give up.
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		line, err := reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
				continue
			}
			if ctx.Err() == nil {
				cause = err
			}
			break loop
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if line[0] == '#' {
			c.handleServerMessage(line)
			continue
		}

		if c.onMessage != nil {
			c.onMessage(line)
		}
	}

	conn.Close()
	c.reset()

	if cause != nil && !errors.Is(cause, net.ErrClosed) {
		log.Warnf("APRS-IS connection to %v lost: %v", c.cfg.Server, cause)
	}
	if c.onDisconnect != nil {
		c.onDisconnect(cause)
	}
}

// handleServerMessage processes a #-prefixed line. The only one we
// interpret is the login response; everything else is logged at debug.
func (c *Client) handleServerMessage(line string) {
	if !strings.Contains(line, "logresp") {
		log.Debugf("APRS-IS server message: %v", line)
		return
	}

	// Token match rather than substring: "unverified" contains
	// "verified", and servers append a comma to the status word.
	verified := false
	for _, field := range strings.Fields(line) {
		if strings.EqualFold(strings.Trim(field, ","), "verified") {
			verified = true
			break
		}
	}

	if verified {
		log.Infof("APRS-IS login verified: %v", line)
	} else {
		log.Warnf("APRS-IS login unverified, continuing receive-only: %v", line)
	}

	if c.onValidated != nil {
		c.onValidated(verified)
	}
}

// Disconnect closes the connection and waits for the read goroutine to
// finish. Safe to call at any time, from any goroutine, repeatedly.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// IsConnected reports whether a connection is currently established.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) reset() {
	c.mu.Lock()
	c.connected = false
	c.conn = nil
	c.mu.Unlock()
}
