package codec

import (
	"fmt"
	"strings"
)

// Tamper replaces field index of token with EncodeField(value) and, when
// resign is set, recomputes the tag over the mutated fields. Re-signing
// after replacing FieldTag overwrites the replacement.
//
// It exists for tests that need tokens with a valid signature around a
// corrupted ciphertext, IV, cipher or timestamp. Production code has no use for it.
func (c *Codec) Tamper(token string, index int, value []byte, resign bool) (string, error) {
	parts, err := splitToken(token)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= FieldCount {
		return "", fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}
	parts[index] = EncodeField(value)
	if resign {
		if len(c.sigKey) == 0 {
			return "", ErrMissingKey
		}
		parts[FieldTag] = sign(c.sigKey, signingInput(parts))
	}
	return strings.Join(parts, Separator), nil
}
