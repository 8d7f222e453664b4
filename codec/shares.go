package codec

import (
	"fmt"

	"github.com/oarkflow/shamir"
)

// SplitKey splits key material into parts shares, any threshold of which
// recover it. Shares are returned as URL-safe base64 so they can be stored as text.
func SplitKey(key string, parts, threshold int) ([]string, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if threshold < 2 || parts < threshold || parts > 255 {
		return nil, fmt.Errorf("%w: need 2 <= threshold <= parts <= 255, got %d of %d", ErrInvalidShares, threshold, parts)
	}
	raw, err := shamir.Split([]byte(key), threshold, parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShares, err)
	}
	out := make([]string, len(raw))
	for i, s := range raw {
		out[i] = EncodeField(s)
	}
	return out, nil
}

// CombineKey reassembles key material from shares produced by SplitKey.
func CombineKey(shares []string) (string, error) {
	if len(shares) < 2 {
		return "", fmt.Errorf("%w: at least two shares required", ErrInvalidShares)
	}
	raw := make([][]byte, len(shares))
	for i, s := range shares {
		b, err := DecodeField(s)
		if err != nil {
			return "", fmt.Errorf("%w: share %d is not base64url", ErrInvalidShares, i)
		}
		raw[i] = b
	}
	secret, err := shamir.Combine(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidShares, err)
	}
	return string(secret), nil
}
