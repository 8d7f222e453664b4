// Package codec turns structured data into authenticated, encrypted,
// URL-safe cookie tokens and back, with no server-side state.
//
// A token is five raw base64url fields joined by ".":
//
//	ciphertext . issuedAt . cipherId . iv . tag
//
// The tag is HMAC-SHA1 over the first four fields exactly as transmitted.
// Decoding runs a fixed pipeline: structure, cipher support, signature,
// freshness, IV length, decryption, JSON. The first failing stage decides the
// error returned by Decode; DecodeLenient reports only false.
//
// Usage:
//
//	c, err := codec.New(codec.Config{
//		EncryptionKey: os.Getenv("COOKIE_ENCRYPTION_KEY"),
//		SignatureKey:  os.Getenv("COOKIE_SIGNATURE_KEY"),
//	})
//	token, err := c.EncodeAny(map[string]any{"uid": 1234567})
//	payload, err := c.Decode(token)
//
// Reading and writing the cookie header is left to the HTTP layer; tokens
// never need percent-encoding.
package codec
