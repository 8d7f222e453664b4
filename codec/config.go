package codec

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCipher is used when Config.Cipher is empty.
	DefaultCipher = AES128CBC
	// DefaultMaxAge is one year in seconds.
	DefaultMaxAge int64 = 365 * 24 * 60 * 60
)

// Config holds the codec settings. Keys are opaque strings; any length works
// because cipher keys are derived from them.
//
// Values are read from YAML (yaml tags) and then from the environment (env tags):
//
//	encryption_key: "..."
//	signature_key: "..."
//	cipher: aes-128-cbc
//	max_age: 86400
type Config struct {
	EncryptionKey string `yaml:"encryption_key" env:"COOKIE_ENCRYPTION_KEY"`
	SignatureKey  string `yaml:"signature_key" env:"COOKIE_SIGNATURE_KEY"`
	Cipher        string `yaml:"cipher" env:"COOKIE_CIPHER"`
	// MaxAge is the token lifetime in seconds. Zero selects DefaultMaxAge.
	MaxAge int64 `yaml:"max_age" env:"COOKIE_MAX_AGE"`
}

// DefaultConfig returns a Config with the default cipher and max age and no keys.
func DefaultConfig() Config {
	return Config{Cipher: DefaultCipher, MaxAge: DefaultMaxAge}
}

func (c Config) withDefaults() Config {
	if c.Cipher == "" {
		c.Cipher = DefaultCipher
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultMaxAge
	}
	return c
}

// Validate reports every problem with the configuration at once.
// New only rejects an unusable cipher or max age; missing keys surface from
// Encode and Decode, so call Validate for fail-fast startup.
func (c Config) Validate() error {
	c = c.withDefaults()
	var errs []error
	if c.EncryptionKey == "" {
		errs = append(errs, fmt.Errorf("%w: encryption key is empty", ErrMissingKey))
	}
	if c.SignatureKey == "" {
		errs = append(errs, fmt.Errorf("%w: signature key is empty", ErrMissingKey))
	}
	if !IsSupported(c.Cipher) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedCipher, c.Cipher))
	}
	if c.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("max age %d is negative", c.MaxAge))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// LoadConfig builds a Config from defaults, an optional YAML file, optional
// dotenv files and finally the process environment. Empty path skips the file.
func LoadConfig(path string, dotenv ...string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("parse %s: %w", path, err))
		}
	}
	if len(dotenv) > 0 {
		if err := godotenv.Load(dotenv...); err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg.withDefaults(), nil
}
