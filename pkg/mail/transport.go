package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/ignatij/logreport/pkg/models"
)

// State is the position of a session in the send lifecycle.
type State string

const (
	Disconnected  State = "DISCONNECTED"
	Connected     State = "CONNECTED"
	Authenticated State = "AUTHENTICATED"
	Sent          State = "SENT"
)

// Step names the lifecycle operation that failed.
type Step string

const (
	StepConnect      Step = "connect"
	StepAuthenticate Step = "authenticate"
	StepTransmit     Step = "transmit"
	StepDisconnect   Step = "disconnect"
)

// TransportError wraps the cause of a failed send.
type TransportError struct {
	Step Step
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("smtp %s failed: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Session is one connection to a mail submission server. Disconnect must be
// safe to call in any state.
type Session interface {
	Connect(ctx context.Context) error
	Authenticate(ctx context.Context) error
	Transmit(ctx context.Context, msg *models.EmailMessage) error
	Disconnect() error
}

// SessionFactory opens a fresh Session for every send.
type SessionFactory interface {
	NewSession() Session
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func() Session

func (f SessionFactoryFunc) NewSession() Session {
	return f()
}

// Logger defines the logging interface for Transport
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Transport delivers one message per Send with no retries.
type Transport struct {
	sessions SessionFactory
	timeout  time.Duration
	logger   Logger
}

// NewTransport creates a Transport. A zero timeout leaves ctx as the only bound.
func NewTransport(sessions SessionFactory, timeout time.Duration, logger Logger) *Transport {
	return &Transport{sessions: sessions, timeout: timeout, logger: logger}
}

// Send connects, authenticates, transmits msg and always disconnects.
func (t *Transport) Send(ctx context.Context, msg *models.EmailMessage) (err error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	sess := t.sessions.NewSession()
	state := Disconnected
	defer func() {
		if derr := sess.Disconnect(); derr != nil {
			t.logger.Errorf("SMTP disconnect from state %s failed: %v", state, derr)
			if err == nil {
				err = &TransportError{Step: StepDisconnect, Err: derr}
			}
		}
	}()

	if err := sess.Connect(ctx); err != nil {
		return &TransportError{Step: StepConnect, Err: err}
	}
	state = Connected

	if err := sess.Authenticate(ctx); err != nil {
		return &TransportError{Step: StepAuthenticate, Err: err}
	}
	state = Authenticated

	if err := sess.Transmit(ctx, msg); err != nil {
		return &TransportError{Step: StepTransmit, Err: err}
	}
	state = Sent

	t.logger.Infof("Sent '%s' to %s", msg.Subject, msg.To)
	return nil
}
