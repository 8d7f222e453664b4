package codec

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"sync"
)

const (
	defaultPoolSize      = 256
	maxPoolSize          = 4096
	charsetMask     byte = 0x3F // 64 symbols, so masking is unbiased
)

// ErrReaderFailed is returned when the entropy source comes up short.
var ErrReaderFailed = errors.New("entropy source read failed")

// charset is the URL-safe base64 alphabet; any output can go straight into a cookie or config file.
var charset = [64]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '_',
}

// SecretGenerator produces random key material. It is safe for concurrent use.
type SecretGenerator struct {
	reader io.Reader
	pool   *sync.Pool

	mu        sync.Mutex
	fastBuf   [64]byte
	fastInUse bool

	prefix string
}

// NewSecretGenerator uses crypto/rand.Reader unless another reader is given.
func NewSecretGenerator(readers ...io.Reader) *SecretGenerator {
	reader := rand.Reader
	if len(readers) > 0 && readers[0] != nil {
		reader = readers[0]
	}
	return &SecretGenerator{
		reader: reader,
		pool: &sync.Pool{
			New: func() any {
				buf := make([]byte, defaultPoolSize)
				return &buf
			},
		},
	}
}

// WithPrefix prepends prefix to every generated string.
func (g *SecretGenerator) WithPrefix(prefix string) *SecretGenerator {
	g.prefix = prefix
	return g
}

func (g *SecretGenerator) getBuffer(size int) ([]byte, bool) {
	if size <= len(g.fastBuf) {
		g.mu.Lock()
		if !g.fastInUse {
			g.fastInUse = true
			g.mu.Unlock()
			return g.fastBuf[:size], true
		}
		g.mu.Unlock()
	}
	if size <= maxPoolSize {
		bufPtr := g.pool.Get().(*[]byte)
		buf := *bufPtr
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		return buf[:size], false
	}
	return make([]byte, size), false
}

func (g *SecretGenerator) putBuffer(buf []byte, isFast bool) {
	clear(buf)
	if isFast {
		g.mu.Lock()
		g.fastInUse = false
		g.mu.Unlock()
		return
	}
	if cap(buf) <= maxPoolSize {
		full := buf[:cap(buf)]
		g.pool.Put(&full)
	}
}

func (g *SecretGenerator) read(buf []byte) error {
	n, err := io.ReadFull(g.reader, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ErrReaderFailed
	}
	return nil
}

// Key returns size random bytes.
func (g *SecretGenerator) Key(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidLength
	}
	out := make([]byte, size)
	if err := g.read(out); err != nil {
		return nil, err
	}
	return out, nil
}

// String returns exactly length characters from the URL-safe base64
// alphabet, plus any prefix.
func (g *SecretGenerator) String(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	buf, isFast := g.getBuffer(length)
	defer g.putBuffer(buf, isFast)

	if err := g.read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = charset[buf[i]&charsetMask]
	}
	return g.prefix + string(buf), nil
}

// Base64 returns size random bytes as raw URL-safe base64.
func (g *SecretGenerator) Base64(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidLength
	}
	buf, isFast := g.getBuffer(size)
	defer g.putBuffer(buf, isFast)

	if err := g.read(buf); err != nil {
		return "", err
	}
	return g.prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

var defaultGenerator = NewSecretGenerator()

// GenerateKey returns a random key of exactly n URL-safe base64 characters,
// usable as either the encryption or the signature key.
func GenerateKey(n int) (string, error) {
	return defaultGenerator.String(n)
}

// GenerateKeyPair returns an encryption key and a signature key of n characters each.
func GenerateKeyPair(n int) (encryption, signature string, err error) {
	if encryption, err = GenerateKey(n); err != nil {
		return "", "", err
	}
	if signature, err = GenerateKey(n); err != nil {
		return "", "", err
	}
	return encryption, signature, nil
}
