package codec

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oarkflow/securecookie"
)

// Codec encodes payloads into authenticated, encrypted cookie tokens and
// decodes them back. A Codec is immutable after New and safe for concurrent use.
type Codec struct {
	encKey []byte
	sigKey []byte
	suite  *suite
	// keys holds the derived cipher key for every supported cipher, so a
	// token naming another supported cipher can still be opened.
	keys   map[string][]byte
	maxAge int64
	now    func() time.Time
	random io.Reader
	log    *slog.Logger
}

// New builds a Codec. Empty keys are accepted here and reported as
// ErrMissingKey by every Encode and Decode call.
func New(cfg Config, opts ...Option) (*Codec, error) {
	cfg = cfg.withDefaults()
	if cfg.MaxAge < 0 {
		return nil, fmt.Errorf("%w: max age %d is negative", ErrInvalidConfig, cfg.MaxAge)
	}
	s, err := lookupSuite(cfg.Cipher)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	c := &Codec{
		encKey: []byte(cfg.EncryptionKey),
		sigKey: []byte(cfg.SignatureKey),
		suite:  s,
		keys:   make(map[string][]byte, len(registry)),
		maxAge: cfg.MaxAge,
		now:    defaultNow,
		random: rand.Reader,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if len(c.encKey) > 0 {
		for id, st := range registry {
			key, err := st.deriveKey(c.encKey)
			if err != nil {
				return nil, fmt.Errorf("derive %s key: %w", id, err)
			}
			c.keys[id] = key
		}
	}
	return c, nil
}

// Cipher returns the cipher id new tokens are encrypted with.
func (c *Codec) Cipher() string { return c.suite.id }

// MaxAge returns the token lifetime.
func (c *Codec) MaxAge() time.Duration { return time.Duration(c.maxAge) * time.Second }

func (c *Codec) hasKeys() bool {
	return len(c.encKey) > 0 && len(c.sigKey) > 0
}

// Encode seals v issued at the codec's current time.
func (c *Codec) Encode(v securecookie.Value) (string, error) {
	return c.EncodeAt(v, c.now())
}

// EncodeAny converts x with securecookie.FromAny and encodes it.
func (c *Codec) EncodeAny(x any) (string, error) {
	v, err := securecookie.FromAny(x)
	if err != nil {
		return "", fmt.Errorf("convert payload: %w", err)
	}
	return c.Encode(v)
}

// EncodeAt seals v with the given issue time.
func (c *Codec) EncodeAt(v securecookie.Value, issuedAt time.Time) (string, error) {
	if !c.hasKeys() {
		return "", ErrMissingKey
	}

	iv := make([]byte, c.suite.ivLen)
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	plain := acquirePlain()
	defer plain.Release()
	var err error
	plain.buf, err = v.AppendJSON(plain.buf)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}

	ciphertext, err := c.suite.seal(c.keys[c.suite.id], iv, plain.buf)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}

	fields := []string{
		EncodeField(ciphertext),
		EncodeField([]byte(strconv.FormatInt(issuedAt.Unix(), 10))),
		EncodeField([]byte(c.suite.id)),
		EncodeField(iv),
		"",
	}
	fields[FieldTag] = sign(c.sigKey, signingInput(fields))
	return strings.Join(fields, Separator), nil
}

// Result is the outcome of Open: either a payload or the first failing stage's error.
type Result struct {
	value securecookie.Value
	err   error
}

// Unwrap is strict mode: the payload, or the distinguishable error.
func (r Result) Unwrap() (securecookie.Value, error) {
	if r.err != nil {
		return securecookie.Value{}, r.err
	}
	return r.value, nil
}

// OK is lenient mode: the payload and true, or null and false.
func (r Result) OK() (securecookie.Value, bool) {
	if r.err != nil {
		return securecookie.Value{}, false
	}
	return r.value, true
}

// Err returns the failure, or nil.
func (r Result) Err() error { return r.err }

// Open runs the full decode pipeline.
func (c *Codec) Open(token string) Result {
	v, err := c.open(token)
	if err != nil {
		c.log.Debug("cookie token rejected", slog.String("stage", stageOf(err)), slog.Any("error", err))
		return Result{err: err}
	}
	return Result{value: v}
}

// stageOf names the pipeline stage that produced err.
func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingKey):
		return "keys"
	case errors.Is(err, ErrMalformedToken):
		return "structure"
	case errors.Is(err, ErrUnsupportedCipher):
		return "cipher"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature"
	case errors.Is(err, ErrExpiredToken):
		return "freshness"
	case errors.Is(err, ErrInvalidIV):
		return "iv"
	case errors.Is(err, ErrInvalidPayload):
		return "payload"
	case errors.Is(err, ErrDecryptionFailed):
		return "decrypt"
	}
	return "unknown"
}

// Decode is strict decoding. The error matches one of ErrMissingKey,
// ErrMalformedToken, ErrUnsupportedCipher, ErrSignatureMismatch,
// ErrExpiredToken, ErrInvalidIV or ErrDecryptionFailed via errors.Is.
func (c *Codec) Decode(token string) (securecookie.Value, error) {
	return c.Open(token).Unwrap()
}

// DecodeLenient is non-strict decoding: any failure yields false and nothing else.
func (c *Codec) DecodeLenient(token string) (securecookie.Value, bool) {
	return c.Open(token).OK()
}

// DecodeMode selects strict or lenient reporting. In lenient mode every
// failure is ErrInvalidToken.
func (c *Codec) DecodeMode(token string, strict bool) (securecookie.Value, error) {
	v, err := c.Open(token).Unwrap()
	if err != nil && !strict {
		return securecookie.Value{}, ErrInvalidToken
	}
	return v, err
}

// DecodeInto decodes strictly and stores the payload in dst.
func (c *Codec) DecodeInto(token string, dst any) error {
	v, err := c.Decode(token)
	if err != nil {
		return err
	}
	if err := v.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Valid reports whether token decodes successfully.
func (c *Codec) Valid(token string) bool {
	_, ok := c.DecodeLenient(token)
	return ok
}

func (c *Codec) open(token string) (securecookie.Value, error) {
	if !c.hasKeys() {
		return securecookie.Value{}, ErrMissingKey
	}

	parts, err := splitToken(token)
	if err != nil {
		return securecookie.Value{}, err
	}

	cipherID, err := DecodeField(parts[FieldCipher])
	if err != nil {
		return securecookie.Value{}, fmt.Errorf("%w: cipher field", ErrMalformedToken)
	}
	s, err := lookupSuite(string(cipherID))
	if err != nil {
		return securecookie.Value{}, err
	}

	if !verify(c.sigKey, parts) {
		return securecookie.Value{}, ErrSignatureMismatch
	}

	rawIssued, err := DecodeField(parts[FieldIssuedAt])
	if err != nil {
		return securecookie.Value{}, fmt.Errorf("%w: issuedAt field", ErrMalformedToken)
	}
	issuedAt, err := strconv.ParseInt(string(rawIssued), 10, 64)
	if err != nil {
		return securecookie.Value{}, fmt.Errorf("%w: issuedAt is not an integer", ErrMalformedToken)
	}
	if now := c.now().Unix(); issuedAt < now-c.maxAge {
		return securecookie.Value{}, fmt.Errorf("%w: issued %ds ago", ErrExpiredToken, now-issuedAt)
	}

	iv, err := DecodeField(parts[FieldIV])
	if err != nil {
		return securecookie.Value{}, fmt.Errorf("%w: iv field", ErrInvalidIV)
	}
	if len(iv) == 0 || len(iv) != s.ivLen {
		return securecookie.Value{}, fmt.Errorf("%w: got %d bytes, %s needs %d", ErrInvalidIV, len(iv), s.id, s.ivLen)
	}

	ciphertext, err := DecodeField(parts[FieldCiphertext])
	if err != nil {
		return securecookie.Value{}, fmt.Errorf("%w: ciphertext field", ErrDecryptionFailed)
	}
	plain, err := s.open(c.keys[s.id], iv, ciphertext)
	if err != nil {
		return securecookie.Value{}, err
	}
	defer clear(plain)

	v, err := securecookie.Parse(plain)
	if err != nil {
		return securecookie.Value{}, ErrInvalidPayload
	}
	return v, nil
}
