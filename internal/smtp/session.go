package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/ignatij/logreport/internal/config"
	"github.com/ignatij/logreport/pkg/mail"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
	gosmtp "github.com/wneessen/go-mail/smtp"
)

var errNotConnected = errors.New("not connected")

// Session is a single SMTP submission connection.
type Session struct {
	cfg    config.Email
	conn   net.Conn
	client *gosmtp.Client
}

var _ mail.Session = (*Session)(nil)

func NewSession(cfg config.Email) *Session {
	return &Session{cfg: cfg}
}

// NewSessionFactory opens a new Session for every send.
func NewSessionFactory(cfg config.Email) mail.SessionFactory {
	return mail.SessionFactoryFunc(func() mail.Session {
		return NewSession(cfg)
	})
}

func (s *Session) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: s.cfg.SMTPServer, MinVersion: tls.VersionTLS12}
}

// Connect dials the server. With UseSSL the connection is TLS from the first
// byte, otherwise it is upgraded with STARTTLS after the greeting.
func (s *Session) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.SMTPServer, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{}

	var conn net.Conn
	var err error
	if s.cfg.UseSSL {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: s.tlsConfig()}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return errors.Wrapf(err, "dial %s", addr)
	}
	// The context deadline bounds every later command on this connection.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := gosmtp.NewClient(conn, s.cfg.SMTPServer)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "read greeting")
	}
	s.conn, s.client = conn, client

	if s.cfg.UseSSL {
		return nil
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		return errors.New("server does not offer STARTTLS")
	}
	return errors.Wrap(client.StartTLS(s.tlsConfig()), "starttls")
}

// Authenticate presents the configured credentials with AUTH PLAIN.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.client == nil {
		return errNotConnected
	}
	auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPServer, false)
	return errors.Wrap(s.client.Auth(auth), "auth")
}

// Transmit submits exactly one message.
func (s *Session) Transmit(ctx context.Context, msg *models.EmailMessage) error {
	if s.client == nil {
		return errNotConnected
	}
	m, err := BuildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.client.Mail(msg.From.Address); err != nil {
		return errors.Wrap(err, "mail from")
	}
	if err := s.client.Rcpt(msg.To); err != nil {
		return errors.Wrap(err, "rcpt to")
	}
	w, err := s.client.Data()
	if err != nil {
		return errors.Wrap(err, "data")
	}
	if _, err := m.WriteTo(w); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "write message")
	}
	return errors.Wrap(w.Close(), "finish data")
}

// Disconnect sends QUIT and closes the connection. It is a no-op when the
// session never connected.
func (s *Session) Disconnect() error {
	if s.client == nil {
		return nil
	}
	client := s.client
	s.client, s.conn = nil, nil
	if err := client.Quit(); err != nil {
		_ = client.Close()
		return errors.Wrap(err, "quit")
	}
	return nil
}

// BuildMessage converts msg into a MIME message.
func BuildMessage(msg *models.EmailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.From.Name, msg.From.Address); err != nil {
		return nil, errors.Wrap(err, "sender address")
	}
	if err := m.To(msg.To); err != nil {
		return nil, errors.Wrap(err, "recipient address")
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	contentType := gomail.TypeTextPlain
	if msg.BodyType == models.HTMLBody {
		contentType = gomail.TypeTextHTML
	}
	m.SetBodyString(contentType, msg.Body)

	if msg.Attachment != nil && len(msg.Attachment.Data) > 0 {
		if err := m.AttachReader(msg.Attachment.Name, bytes.NewReader(msg.Attachment.Data)); err != nil {
			return nil, errors.Wrap(err, "attach "+msg.Attachment.Name)
		}
	}
	return m, nil
}
