package codec

import (
	"io"
	"log/slog"
	"time"
)

// Option customizes a Codec.
type Option func(*Codec)

// WithClock injects the time source used for issuedAt and freshness checks.
func WithClock(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithRandom replaces crypto/rand as the IV source. The reader must be safe
// for concurrent use if the codec is shared.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		if r != nil {
			c.random = r
		}
	}
}

// WithLogger sets the logger that receives decode rejections at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

func defaultNow() time.Time { return time.Now().UTC() }
