package codec

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
)

const (
	// Separator joins the token fields.
	Separator = "."
	// FieldCount is the number of fields in every token.
	FieldCount = 5
	// maxTokenSize caps the input decode will look at.
	maxTokenSize = 8192
)

// Field positions inside a token.
const (
	FieldCiphertext = iota
	FieldIssuedAt
	FieldCipher
	FieldIV
	FieldTag
)

// EncodeField returns raw URL-safe base64 without padding.
func EncodeField(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeField reverses EncodeField.
func DecodeField(field string) ([]byte, error) {
	if len(field) > maxTokenSize {
		return nil, ErrMalformedToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(field)
	if err != nil {
		return nil, ErrMalformedToken
	}
	return raw, nil
}

// splitToken returns the five encoded fields.
func splitToken(token string) ([]string, error) {
	if token == "" || len(token) > maxTokenSize {
		return nil, ErrMalformedToken
	}
	parts := strings.Split(token, Separator)
	if len(parts) != FieldCount {
		return nil, ErrMalformedToken
	}
	return parts, nil
}

// signingInput is the literal string the tag covers: fields 1-4 joined, as transmitted.
func signingInput(parts []string) string {
	return strings.Join(parts[:FieldTag], Separator)
}

func sign(key []byte, input string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(input))
	return EncodeField(mac.Sum(nil))
}

// verify recomputes the tag and compares the encoded strings in constant time.
func verify(key []byte, parts []string) bool {
	expected := sign(key, signingInput(parts))
	return hmac.Equal([]byte(expected), []byte(parts[FieldTag]))
}
