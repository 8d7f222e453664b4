package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Cipher identifiers understood by the codec. Only those the linked crypto
// libraries can actually construct end up in SupportedCiphers.
const (
	AES128CBC         = "aes-128-cbc"
	AES192CBC         = "aes-192-cbc"
	AES256CBC         = "aes-256-cbc"
	TripleDESCBC      = "des-ede3-cbc"
	BlowfishCBC       = "bf-cbc"
	CAST5CBC          = "cast5-cbc"
	AES128GCM         = "aes-128-gcm"
	AES256GCM         = "aes-256-gcm"
	ChaCha20Poly1305  = "chacha20-poly1305"
	XChaCha20Poly1305 = "xchacha20-poly1305"
)

// keyInfoPrefix separates derived cipher keys per cipher id.
const keyInfoPrefix = "securecookie/"

// suite is one usable cipher. Exactly one of newBlock and newAEAD is set.
type suite struct {
	id       string
	keyLen   int
	ivLen    int
	newBlock func(key []byte) (cipher.Block, error)
	newAEAD  func(key []byte) (cipher.AEAD, error)
}

type candidate struct {
	id       string
	keyLen   int
	newBlock func(key []byte) (cipher.Block, error)
	newAEAD  func(key []byte) (cipher.AEAD, error)
}

var candidates = []candidate{
	{id: AES128CBC, keyLen: 16, newBlock: aes.NewCipher},
	{id: AES192CBC, keyLen: 24, newBlock: aes.NewCipher},
	{id: AES256CBC, keyLen: 32, newBlock: aes.NewCipher},
	{id: TripleDESCBC, keyLen: 24, newBlock: des.NewTripleDESCipher},
	{id: BlowfishCBC, keyLen: 16, newBlock: func(k []byte) (cipher.Block, error) { return blowfish.NewCipher(k) }},
	{id: CAST5CBC, keyLen: cast5.KeySize, newBlock: func(k []byte) (cipher.Block, error) { return cast5.NewCipher(k) }},
	{id: AES128GCM, keyLen: 16, newAEAD: newGCM},
	{id: AES256GCM, keyLen: 32, newAEAD: newGCM},
	{id: ChaCha20Poly1305, keyLen: chacha20poly1305.KeySize, newAEAD: chacha20poly1305.New},
	{id: XChaCha20Poly1305, keyLen: chacha20poly1305.KeySize, newAEAD: chacha20poly1305.NewX},
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

var (
	registry  map[string]*suite
	supported []string
)

func init() {
	registry, supported = probe(candidates)
}

// probe keeps the candidates whose constructor works in this process and
// records the IV length the constructed primitive reports.
func probe(list []candidate) (map[string]*suite, []string) {
	reg := make(map[string]*suite, len(list))
	ids := make([]string, 0, len(list))
	for _, c := range list {
		zero := make([]byte, c.keyLen)
		s := &suite{id: c.id, keyLen: c.keyLen, newBlock: c.newBlock, newAEAD: c.newAEAD}
		switch {
		case c.newBlock != nil:
			b, err := c.newBlock(zero)
			if err != nil {
				continue
			}
			s.ivLen = b.BlockSize()
		case c.newAEAD != nil:
			a, err := c.newAEAD(zero)
			if err != nil {
				continue
			}
			s.ivLen = a.NonceSize()
		default:
			continue
		}
		if s.ivLen <= 0 {
			continue
		}
		reg[c.id] = s
		ids = append(ids, c.id)
	}
	sort.Strings(ids)
	return reg, ids
}

// SupportedCiphers lists the usable cipher ids in sorted order.
func SupportedCiphers() []string {
	return append([]string(nil), supported...)
}

// IsSupported reports whether id names a usable cipher.
func IsSupported(id string) bool {
	_, ok := registry[id]
	return ok
}

// IVLength returns the IV length for a supported cipher, or -1.
func IVLength(id string) int {
	if s, ok := registry[id]; ok {
		return s.ivLen
	}
	return -1
}

func lookupSuite(id string) (*suite, error) {
	s, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCipher, id)
	}
	return s, nil
}

// deriveKey stretches or shrinks opaque key material to the cipher's key length.
func (s *suite) deriveKey(material []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, material, nil, []byte(keyInfoPrefix+s.id))
	key := make([]byte, s.keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// seal encrypts plain. For block suites plain is padded in place when its
// capacity allows, so callers must not reuse it afterwards.
func (s *suite) seal(key, iv, plain []byte) ([]byte, error) {
	if len(iv) != s.ivLen {
		return nil, ErrInvalidIV
	}
	if s.newAEAD != nil {
		aead, err := s.newAEAD(key)
		if err != nil {
			return nil, err
		}
		return aead.Seal(nil, iv, plain, nil), nil
	}
	block, err := s.newBlock(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plain, block.BlockSize())
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	return padded, nil
}

func (s *suite) open(key, iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != s.ivLen {
		return nil, ErrInvalidIV
	}
	if s.newAEAD != nil {
		aead, err := s.newAEAD(key)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		plain, err := aead.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		return plain, nil
	}
	block, err := s.newBlock(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	bs := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, ErrDecryptionFailed
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain, bs)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	for i := 0; i < n; i++ {
		data = append(data, byte(n))
	}
	return data
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
