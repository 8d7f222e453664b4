package codec

import (
	"errors"
	"fmt"
)

// Decode failures, in the order the pipeline can produce them.
var (
	// ErrMissingKey is returned when the encryption or signature key is empty.
	ErrMissingKey = errors.New("encryption and signature keys are required")
	// ErrMalformedToken indicates the token does not have the five-field structure.
	ErrMalformedToken = errors.New("token is malformed")
	// ErrUnsupportedCipher indicates a cipher id outside the supported set.
	ErrUnsupportedCipher = errors.New("unsupported cipher")
	// ErrSignatureMismatch is returned when the authentication tag does not verify.
	ErrSignatureMismatch = errors.New("token signature mismatch")
	// ErrExpiredToken is returned when issuedAt + maxAge is in the past.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidIV is returned for an empty or wrong-length initialization vector.
	ErrInvalidIV = errors.New("invalid initialization vector")
	// ErrDecryptionFailed is returned when the cipher rejects the ciphertext.
	ErrDecryptionFailed = errors.New("token decryption failed")
	// ErrInvalidPayload is returned when the decrypted bytes are not JSON.
	ErrInvalidPayload = fmt.Errorf("%w: payload is not valid JSON", ErrDecryptionFailed)
)

// ErrInvalidToken is the only failure lenient decoding reports.
var ErrInvalidToken = errors.New("token invalid or expired")

var (
	ErrInvalidConfig = errors.New("invalid codec configuration")
	ErrInvalidLength = errors.New("length must be positive")
	ErrFieldIndex    = errors.New("token field index out of range")
	ErrInvalidShares = errors.New("invalid key shares")
)
