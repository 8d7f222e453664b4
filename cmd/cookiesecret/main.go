package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/oarkflow/securecookie"
	"github.com/oarkflow/securecookie/codec"
	"github.com/oarkflow/securecookie/internal/keyfile"
)

const version = "1.0.0"

// Config holds the parsed command line.
type Config struct {
	FileType        string
	FilePath        string
	Key             string
	Length          int
	Backup          bool
	Verbose         bool
	ShowVersion     bool
	CopyToClipboard bool

	Encode     bool
	Decode     bool
	ConfigPath string
	DotEnv     string
	Payload    string
	TokenInput string

	Split     bool
	Secret    string
	Shares    int
	Threshold int
	Combine   string
}

func main() {
	config := parseFlags()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(config.Verbose)}))

	if config.ShowVersion {
		fmt.Printf("cookiesecret v%s\n", version)
		return
	}

	if err := validateConfig(config); err != nil {
		log.Error("configuration error", slog.Any("error", err))
		os.Exit(2)
	}

	var err error
	switch {
	case config.Encode:
		err = runEncode(config, log)
	case config.Decode:
		err = runDecode(config, log)
	case config.Split:
		err = runSplit(config)
	case config.Combine != "":
		err = runCombine(config, log)
	default:
		err = runGenerate(config, log)
	}
	if err != nil {
		log.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.FileType, "type", "", "Configuration file type (env, json, yaml, yml)")
	flag.StringVar(&config.FileType, "t", "", "Configuration file type (shorthand)")
	flag.StringVar(&config.FilePath, "file", "", "Configuration file to write the generated keys into")
	flag.StringVar(&config.FilePath, "f", "", "Configuration file (shorthand)")
	flag.StringVar(&config.Key, "key", "", "Entry name to set; without it both codec keys are written")
	flag.StringVar(&config.Key, "k", "", "Entry name to set (shorthand)")
	flag.IntVar(&config.Length, "length", 32, "Length of each generated key in characters")
	flag.IntVar(&config.Length, "l", 32, "Length of each generated key (shorthand)")
	noBackup := flag.Bool("no-backup", false, "Do not back up the configuration file before writing")
	flag.BoolVar(&config.CopyToClipboard, "copy", true, "Copy printed secrets and tokens to the clipboard")
	noCopy := flag.Bool("no-copy", false, "Disable clipboard copy")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&config.Verbose, "v", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version information")

	flag.BoolVar(&config.Encode, "encode", false, "Encode a JSON payload into a cookie token")
	flag.BoolVar(&config.Encode, "E", false, "Encode a JSON payload (shorthand)")
	flag.BoolVar(&config.Decode, "decode", false, "Decode and verify a cookie token")
	flag.BoolVar(&config.Decode, "D", false, "Decode a cookie token (shorthand)")
	flag.StringVar(&config.ConfigPath, "config", "", "YAML codec configuration (environment overrides apply)")
	flag.StringVar(&config.ConfigPath, "c", "", "YAML codec configuration (shorthand)")
	flag.StringVar(&config.DotEnv, "dotenv", "", "Load this .env file before reading the environment")
	flag.StringVar(&config.Payload, "payload", "", "JSON payload to encode; non-JSON text is encoded as a string")
	flag.StringVar(&config.Payload, "p", "", "JSON payload (shorthand)")
	flag.StringVar(&config.TokenInput, "token", "", "Token to decode")

	flag.BoolVar(&config.Split, "split", false, "Split -secret into Shamir shares")
	flag.StringVar(&config.Secret, "secret", "", "Key material to split")
	flag.IntVar(&config.Shares, "shares", 5, "Number of shares to produce")
	flag.IntVar(&config.Threshold, "threshold", 3, "Shares required to recover the key")
	flag.StringVar(&config.Combine, "combine", "", "Comma-separated shares to recombine")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cookiesecret v%s - generate cookie codec keys and inspect tokens\n\n", version)
		fmt.Fprintf(os.Stderr, "USAGE:\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret [-l <length>]                       # print a key pair\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret -f <file> [-k <name>] [-t <type>]   # write keys into a config file\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret -encode -config <yaml> -payload '<json>'\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret -decode -config <yaml> -token <token>\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret -split -secret <key> -shares 5 -threshold 3\n")
		fmt.Fprintf(os.Stderr, "  cookiesecret -combine <share1>,<share2>,<share3>\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	config.Backup = !*noBackup
	if *noCopy {
		config.CopyToClipboard = false
	}
	return config
}

func validateConfig(config *Config) error {
	modes := 0
	for _, on := range []bool{config.Encode, config.Decode, config.Split, config.Combine != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("-encode, -decode, -split and -combine are mutually exclusive")
	}

	switch {
	case config.Decode:
		if strings.TrimSpace(config.TokenInput) == "" {
			return errors.New("-token is required with -decode")
		}
	case config.Split:
		if config.Secret == "" {
			return errors.New("-secret is required with -split")
		}
	case config.Encode, config.Combine != "":
	default:
		if config.Length <= 0 {
			return errors.New("key length must be positive")
		}
		if config.Length > 1024 {
			return errors.New("key length cannot exceed 1024 characters")
		}
		if config.FilePath != "" && config.FileType == "" {
			detected, err := keyfile.DetectType(config.FilePath)
			if err != nil {
				return fmt.Errorf("%w; pass -t", err)
			}
			config.FileType = string(detected)
		}
		if config.FileType != "" {
			if _, err := keyfile.ParseType(config.FileType); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadCodec(config *Config, log *slog.Logger) (*codec.Codec, error) {
	var dotenv []string
	if config.DotEnv != "" {
		dotenv = append(dotenv, config.DotEnv)
	}
	cfg, err := codec.LoadConfig(config.ConfigPath, dotenv...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return codec.New(cfg, codec.WithLogger(log))
}

func runEncode(config *Config, log *slog.Logger) error {
	c, err := loadCodec(config, log)
	if err != nil {
		return err
	}
	payload, err := parsePayload(config.Payload)
	if err != nil {
		return err
	}
	token, err := c.Encode(payload)
	if err != nil {
		return err
	}
	fmt.Println(token)
	log.Debug("token encoded", slog.String("cipher", c.Cipher()), slog.Int("length", len(token)))
	copyToClipboard(config, log, token)
	return nil
}

// parsePayload reads JSON, falling back to a plain string for anything else.
func parsePayload(raw string) (securecookie.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return securecookie.Null(), nil
	}
	if v, err := securecookie.Parse([]byte(trimmed)); err == nil {
		return v, nil
	}
	return securecookie.String(raw), nil
}

func runDecode(config *Config, log *slog.Logger) error {
	c, err := loadCodec(config, log)
	if err != nil {
		return err
	}
	v, err := c.Decode(strings.TrimSpace(config.TokenInput))
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}
	fmt.Println(v.String())
	return nil
}

func runSplit(config *Config) error {
	shares, err := codec.SplitKey(config.Secret, config.Shares, config.Threshold)
	if err != nil {
		return err
	}
	for i, s := range shares {
		fmt.Printf("share %d: %s\n", i+1, s)
	}
	return nil
}

func runCombine(config *Config, log *slog.Logger) error {
	var shares []string
	for _, s := range strings.Split(config.Combine, ",") {
		if s = strings.TrimSpace(s); s != "" {
			shares = append(shares, s)
		}
	}
	secret, err := codec.CombineKey(shares)
	if err != nil {
		return err
	}
	fmt.Println(secret)
	copyToClipboard(config, log, secret)
	return nil
}

// entryNames returns the names the codec reads its keys from for a file type.
func entryNames(t keyfile.Type) (encryption, signature string) {
	if t == keyfile.TypeEnv {
		return "COOKIE_ENCRYPTION_KEY", "COOKIE_SIGNATURE_KEY"
	}
	return "encryption_key", "signature_key"
}

func runGenerate(config *Config, log *slog.Logger) error {
	if config.FilePath == "" {
		encKey, sigKey, err := codec.GenerateKeyPair(config.Length)
		if err != nil {
			return fmt.Errorf("failed to generate keys: %w", err)
		}
		fmt.Printf("encryption key: %s\n", encKey)
		fmt.Printf("signature key:  %s\n", sigKey)
		copyToClipboard(config, log, encKey+"\n"+sigKey)
		return nil
	}

	t, err := keyfile.ParseType(config.FileType)
	if err != nil {
		return err
	}
	if config.Backup {
		backup, err := keyfile.Backup(config.FilePath)
		if err != nil {
			log.Warn("backup failed", slog.String("file", config.FilePath), slog.Any("error", err))
		} else if backup != "" {
			log.Info("backup created", slog.String("file", backup))
		}
	}

	names := []string{config.Key}
	if config.Key == "" {
		enc, sig := entryNames(t)
		names = []string{enc, sig}
	}
	for _, name := range names {
		secret, err := codec.GenerateKey(config.Length)
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		if err := keyfile.Set(config.FilePath, t, name, secret); err != nil {
			return fmt.Errorf("failed to update %s file: %w", t, err)
		}
		log.Info("key written", slog.String("file", config.FilePath), slog.String("entry", name))
	}
	return nil
}

func copyToClipboard(config *Config, log *slog.Logger, text string) {
	if !config.CopyToClipboard || text == "" {
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		log.Warn("unable to copy to clipboard", slog.Any("error", err))
		return
	}
	log.Info("copied to clipboard")
}
