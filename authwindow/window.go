package authwindow

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
	"github.com/starnotary/notary/signature"
	"github.com/starnotary/notary/stringutil"
)

const (
	DefaultWindow          = 300 * time.Second
	DefaultCleanupInterval = 30 * time.Second

	signatureValid = "valid"
)

type Option func(*Window)

// WithClock replaces the wall clock used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(w *Window) {
		w.now = now
	}
}

// WithDuration sets how long a token stays usable after it is issued.
func WithDuration(d time.Duration) Option {
	return func(w *Window) {
		if d > 0 {
			w.window = d
		}
	}
}

// WithCleanupInterval sets how often expired entries are purged.
func WithCleanupInterval(d time.Duration) Option {
	return func(w *Window) {
		if d > 0 {
			w.cleanupInterval = d
		}
	}
}

// Window issues per-address challenge tokens, checks signatures over them
// and hands out single-use write permits. One mutex serializes every
// operation across all addresses.
//
// Entries are held in TTL caches that drop them once their deadline passes,
// and every read also checks the deadline against the configured clock, so
// a stale entry is never served even before the cache purges it.
type Window struct {
	mu              sync.Mutex
	verifier        signature.Verifier
	now             func() time.Time
	window          time.Duration
	cleanupInterval time.Duration
	tokens          *cache.Cache
	permits         *cache.Cache
}

func NewWindow(verifier signature.Verifier, opts ...Option) *Window {
	w := &Window{
		verifier:        verifier,
		now:             time.Now,
		window:          DefaultWindow,
		cleanupInterval: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.tokens = cache.New(w.window, w.cleanupInterval)
	w.permits = cache.New(w.window, w.cleanupInterval)
	return w
}

// Duration returns the configured validation window.
func (w *Window) Duration() time.Duration {
	return w.window
}

// liveToken returns the token for address if it has not expired. Callers
// must hold w.mu.
func (w *Window) liveToken(address string, now time.Time) (*record, bool) {
	v, ok := w.tokens.Get(address)
	if !ok {
		return nil, false
	}
	rec := v.(*record)
	if rec.expired(now) {
		w.tokens.Delete(address)
		return nil, false
	}
	return rec, true
}

// ttl converts a deadline on the configured clock into a cache lifetime.
func ttl(deadline, now time.Time) time.Duration {
	d := deadline.Sub(now)
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

// RequestWindow issues a token for address, or returns the live one with its
// remaining window recomputed. The message and timestamp of a live token are
// never reset.
func (w *Window) RequestWindow(address string) (Token, error) {
	if address == "" {
		return Token{}, errors.NewError(errors.ErrCodeInvalidRequest, fmt.Sprintf(errors.ErrMsgFieldRequired, "address"))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if rec, ok := w.liveToken(address, now); ok {
		monitoring.RecordAuthOutcome(monitoring.AuthWindowRefreshed)
		view := rec.view(now)
		logx.Debug("AUTH", fmt.Sprintf("Validation window refreshed for %s: %ds left", address, view.ValidationWindow))
		return view, nil
	}

	rec := newRecord(address, now, w.window)
	w.tokens.Set(address, rec, ttl(rec.deadline, now))
	monitoring.RecordAuthOutcome(monitoring.AuthWindowOpened)
	logx.Info("AUTH", fmt.Sprintf("Validation window opened for %s until %d", stringutil.ShortenAddress(address), rec.deadline.Unix()))
	return rec.view(now), nil
}

// Authorize checks signature over the live token of address. On success the
// token is consumed and a write permit is granted. A bad or malformed
// signature leaves the token in place.
func (w *Window) Authorize(address, sig string) (*AuthorizationStatus, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	rec, ok := w.liveToken(address, now)
	if !ok || rec.remaining(now) <= 0 {
		monitoring.RecordAuthOutcome(monitoring.AuthNoToken)
		return nil, errors.NewError(errors.ErrCodeAuthorization, errors.ErrMsgNoValidationRequest)
	}

	valid, err := w.verifier.Verify(address, rec.message, sig)
	if err != nil || !valid {
		monitoring.RecordAuthOutcome(monitoring.AuthInvalidSignature)
		logx.Warn("AUTH", fmt.Sprintf("Signature rejected for %s: valid=%v err=%v", address, valid, err))
		return nil, errors.Wrap(errors.ErrCodeSignature, errors.ErrMsgSignatureInvalid, err)
	}

	w.tokens.Delete(address)
	w.permits.Set(address, Permit{Address: address, Message: rec.message, Deadline: rec.deadline}, ttl(rec.deadline, now))
	monitoring.RecordAuthOutcome(monitoring.AuthGranted)
	logx.Info("AUTH", "Write permit granted for ", stringutil.ShortenAddress(address))

	return &AuthorizationStatus{
		RegisterStar: true,
		Status: Status{
			Address:          address,
			RequestTimeStamp: rec.requestTimeStamp,
			Message:          rec.message,
			ValidationWindow: rec.remaining(now),
			MessageSignature: signatureValid,
		},
	}, nil
}

// ConsumePermit removes and returns the write permit of address.
func (w *Window) ConsumePermit(address string) (Permit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, ok := w.permits.Get(address)
	if ok {
		w.permits.Delete(address)
	}
	if !ok || !w.now().Before(v.(Permit).Deadline) {
		monitoring.RecordAuthOutcome(monitoring.AuthPermitMissing)
		return Permit{}, errors.NewError(errors.ErrCodeAuthorization, errors.ErrMsgNoValidationRequest)
	}

	monitoring.RecordAuthOutcome(monitoring.AuthPermitConsumed)
	return v.(Permit), nil
}

// RestorePermit gives back a permit whose write failed on the server side.
// Expired permits are dropped.
func (w *Window) RestorePermit(p Permit) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if !now.Before(p.Deadline) {
		return
	}
	w.permits.Set(p.Address, p, ttl(p.Deadline, now))
	logx.Info("AUTH", "Write permit restored for ", stringutil.ShortenAddress(p.Address))
}
