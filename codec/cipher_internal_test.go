package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPKCS7(t *testing.T) {
	for n := 0; n <= 33; n++ {
		data := bytes.Repeat([]byte{'a'}, n)
		padded := pkcs7Pad(append([]byte(nil), data...), 16)
		require.Zero(t, len(padded)%16)
		require.Greater(t, len(padded), n)

		out, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		require.Equal(t, data, out)
	}
}

func TestPKCS7RejectsBadPadding(t *testing.T) {
	block := bytes.Repeat([]byte{'a'}, 16)
	for _, last := range []byte{0, 17, 3} {
		b := append([]byte(nil), block...)
		b[15] = last
		_, err := pkcs7Unpad(b, 16)
		require.ErrorIs(t, err, ErrDecryptionFailed, "last byte %d", last)
	}
	_, err := pkcs7Unpad(nil, 16)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	_, err = pkcs7Unpad(make([]byte, 15), 16)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDerivedKeysAreSeparatedPerCipher(t *testing.T) {
	a, err := registry[AES128CBC].deriveKey([]byte("material"))
	require.NoError(t, err)
	require.Len(t, a, 16)

	b, err := registry[AES128GCM].deriveKey([]byte("material"))
	require.NoError(t, err)
	require.Len(t, b, 16)
	require.NotEqual(t, a, b)

	again, err := registry[AES128CBC].deriveKey([]byte("material"))
	require.NoError(t, err)
	require.Equal(t, a, again)
}

func TestProbeSkipsBrokenCandidates(t *testing.T) {
	reg, ids := probe([]candidate{
		{id: "aes-bad-key", keyLen: 7, newBlock: registry[AES128CBC].newBlock},
		{id: "nothing", keyLen: 16},
		{id: AES128CBC, keyLen: 16, newBlock: registry[AES128CBC].newBlock},
	})
	require.Equal(t, []string{AES128CBC}, ids)
	require.Contains(t, reg, AES128CBC)
	require.NotContains(t, reg, "aes-bad-key")
}

func TestPlainBufferIsClearedOnRelease(t *testing.T) {
	p := acquirePlain()
	p.buf = append(p.buf, "secret payload"...)
	backing := p.buf[:cap(p.buf)]
	p.Release()

	for _, b := range backing {
		require.Zero(t, b)
	}
	require.Nil(t, p.buf)
	p.Release()
}
