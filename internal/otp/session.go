package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ResendDelay is how long a sent code blocks another send, in seconds.
const ResendDelay = 60

var (
	// ErrNoPhone is returned when sending without a phone number.
	ErrNoPhone = errors.New("otp: phone number required")
	// ErrNotSent is returned when verifying before any code was sent.
	ErrNotSent = errors.New("otp: no code sent")
	// ErrMismatch is returned when the entered code is wrong.
	ErrMismatch = errors.New("otp: code does not match")
)

// ResendLockedError reports that the resend countdown is still running.
type ResendLockedError struct {
	Remaining int
}

func (e *ResendLockedError) Error() string {
	return fmt.Sprintf("otp: resend available in %ds", e.Remaining)
}

// IsResendLocked reports whether err is, or wraps, a ResendLockedError.
func IsResendLocked(err error) bool {
	var rl *ResendLockedError
	return errors.As(err, &rl)
}

// Sender delivers a code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender records sends in the log instead of delivering them.
type LogSender struct {
	Log *slog.Logger
}

// Send implements Sender.
func (s LogSender) Send(ctx context.Context, phone, code string) error {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "otp sent", "phone", phone, "code", code)
	return nil
}

// Session tracks one phone verification.
//
// Thread-safety: Session is safe for concurrent use via internal mutex.
type Session struct {
	sender   Sender
	codes    CodeSource
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	phone    string
	code     string
	entered  string
	sent     bool
	verified bool
	cancel   context.CancelFunc

	countdown Countdown
}

// Option configures a Session.
type Option func(*Session)

// WithCodes sets the code source. Defaults to RandomCode.
func WithCodes(src CodeSource) Option {
	return func(s *Session) { s.codes = src }
}

// WithTickInterval sets the countdown tick interval. Zero disables the
// background ticker; the caller then drives Countdown().Tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.interval = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates a session that sends through sender.
func NewSession(sender Sender, opts ...Option) *Session {
	s := &Session{
		sender:   sender,
		codes:    RandomCode,
		interval: time.Second,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send generates a code for phone and delivers it, then starts the resend
// countdown. It fails while the countdown is running.
func (s *Session) Send(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrNoPhone
	}
	if left := s.countdown.Remaining(); left > 0 {
		return &ResendLockedError{Remaining: left}
	}

	code, err := s.codes()
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("send otp to %s: %w", phone, err)
	}

	s.mu.Lock()
	s.phone = phone
	s.code = code
	s.entered = ""
	s.sent = true
	s.verified = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.countdown.Reset(ResendDelay)
	if s.interval > 0 {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		go s.countdown.Run(runCtx, s.interval)
	}
	s.mu.Unlock()

	s.log.Debug("otp issued", "phone", phone, "resend_in", ResendDelay)
	return nil
}

// Resend is Send for the phone number of the previous send.
func (s *Session) Resend(ctx context.Context) error {
	s.mu.Lock()
	phone := s.phone
	s.mu.Unlock()
	if phone == "" {
		return ErrNotSent
	}
	return s.Send(ctx, phone)
}

// Enter records the digits typed so far.
func (s *Session) Enter(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = strings.TrimSpace(code)
}

// Entered returns the digits typed so far.
func (s *Session) Entered() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entered
}

// Verify checks the entered code. A wrong code clears the entry.
func (s *Session) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sent {
		return ErrNotSent
	}
	if s.entered != s.code {
		s.entered = ""
		return ErrMismatch
	}
	s.verified = true
	return nil
}

// Verified reports whether the last sent code was verified.
func (s *Session) Verified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified
}

// Sent reports whether a code has been sent.
func (s *Session) Sent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Countdown exposes the resend countdown.
func (s *Session) Countdown() *Countdown { return &s.countdown }

// Reset clears the session and stops the countdown.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.phone, s.code, s.entered = "", "", ""
	s.sent, s.verified = false, false
	s.countdown.Reset(0)
}
