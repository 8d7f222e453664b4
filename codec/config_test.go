package codec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/securecookie/codec"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeFile(t, "cookie.yaml", `
encryption_key: file-enc
signature_key: file-sig
cipher: aes-256-gcm
max_age: 600
`)
	cfg, err := codec.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, codec.Config{
		EncryptionKey: "file-enc",
		SignatureKey:  "file-sig",
		Cipher:        codec.AES256GCM,
		MaxAge:        600,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "cookie.yaml", "encryption_key: file-enc\nsignature_key: file-sig\nmax_age: 600\n")
	t.Setenv("COOKIE_SIGNATURE_KEY", "env-sig")
	t.Setenv("COOKIE_MAX_AGE", "120")

	cfg, err := codec.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "file-enc", cfg.EncryptionKey)
	require.Equal(t, "env-sig", cfg.SignatureKey)
	require.EqualValues(t, 120, cfg.MaxAge)
	require.Equal(t, codec.DefaultCipher, cfg.Cipher)
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "COOKIE_ENCRYPTION_KEY=dotenv-enc\nCOOKIE_SIGNATURE_KEY=dotenv-sig\nCOOKIE_CIPHER=chacha20-poly1305\n")
	// godotenv.Load does not override variables that are already set, and
	// registering them with t.Setenv restores the original state afterwards.
	t.Setenv("COOKIE_ENCRYPTION_KEY", "")
	t.Setenv("COOKIE_SIGNATURE_KEY", "")
	t.Setenv("COOKIE_CIPHER", "")
	require.NoError(t, os.Unsetenv("COOKIE_ENCRYPTION_KEY"))
	require.NoError(t, os.Unsetenv("COOKIE_SIGNATURE_KEY"))
	require.NoError(t, os.Unsetenv("COOKIE_CIPHER"))

	cfg, err := codec.LoadConfig("", dotenv)
	require.NoError(t, err)
	require.Equal(t, "dotenv-enc", cfg.EncryptionKey)
	require.Equal(t, "dotenv-sig", cfg.SignatureKey)
	require.Equal(t, codec.ChaCha20Poly1305, cfg.Cipher)
	require.Equal(t, codec.DefaultMaxAge, cfg.MaxAge)

	c, err := codec.New(cfg)
	require.NoError(t, err)
	require.Equal(t, codec.ChaCha20Poly1305, c.Cipher())
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, name := range []string{"COOKIE_ENCRYPTION_KEY", "COOKIE_SIGNATURE_KEY", "COOKIE_CIPHER", "COOKIE_MAX_AGE"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	cfg, err := codec.LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, codec.DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := codec.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, codec.ErrInvalidConfig)

	bad := writeFile(t, "bad.yaml", "encryption_key: [unclosed\n")
	_, err = codec.LoadConfig(bad)
	require.ErrorIs(t, err, codec.ErrInvalidConfig)

	t.Setenv("COOKIE_MAX_AGE", "soon")
	_, err = codec.LoadConfig("")
	require.ErrorIs(t, err, codec.ErrInvalidConfig)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := codec.Config{Cipher: "rot13", MaxAge: -5}.Validate()
	require.ErrorIs(t, err, codec.ErrInvalidConfig)
	require.ErrorIs(t, err, codec.ErrMissingKey)
	require.ErrorIs(t, err, codec.ErrUnsupportedCipher)
	require.Contains(t, err.Error(), "negative")

	require.NoError(t, codec.Config{EncryptionKey: "e", SignatureKey: "s"}.Validate())
}
