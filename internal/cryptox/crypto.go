// Package cryptox holds the password hash and the passphrase cipher used to
// protect the locally stored session pair.
//
// The cipher produces the same format as CryptoJS.AES.encrypt(text, passphrase)
// and `openssl enc -aes-256-cbc -md md5 -a`:
//
//	base64("Salted__" || salt[8] || AES-256-CBC(PKCS#7(plaintext)))
//
// with key and IV derived by EVP_BytesToKey (MD5, one round). Values written
// by the web dashboard therefore decrypt here and vice versa.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dmitrijs2005/psadmin/internal/common"
)

const (
	saltSize = 8
	keySize  = 32
)

var saltedMagic = []byte("Salted__")

// HashPassword returns the lowercase hex SHA-256 digest of plaintext.
// It is unsalted: stored admin digests are plain SHA-256 and must keep
// comparing equal.
func HashPassword(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Cipher encrypts and decrypts strings with a static passphrase.
type Cipher struct {
	passphrase []byte
	rand       io.Reader
}

// Option tweaks a Cipher.
type Option func(*Cipher)

// WithRand sets the salt source. Tests use it to get deterministic output.
func WithRand(r io.Reader) Option {
	return func(c *Cipher) { c.rand = r }
}

// NewCipher returns a Cipher keyed by passphrase.
func NewCipher(passphrase string, opts ...Option) *Cipher {
	c := &Cipher{passphrase: []byte(passphrase), rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encrypt returns the base64 OpenSSL-salted ciphertext of plaintext.
// A fresh random salt is drawn for every call.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("salt generation error: %w", err)
	}

	key, iv := deriveKeyIV(c.passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(saltedMagic)+saltSize+len(padded))
	copy(out, saltedMagic)
	copy(out[len(saltedMagic):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(saltedMagic)+saltSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Malformed input, a foreign passphrase (as far
// as padding and UTF-8 checks can tell) or a non-UTF-8 result all yield an
// error matching common.ErrDecryption.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.Strict().DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	headerLen := len(saltedMagic) + saltSize
	if len(raw) < headerLen+aes.BlockSize || !bytes.Equal(raw[:len(saltedMagic)], saltedMagic) {
		return "", fmt.Errorf("%w: missing salt header", common.ErrDecryption)
	}
	body := raw[headerLen:]
	if len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a multiple of the block size", common.ErrDecryption)
	}

	key, iv := deriveKeyIV(c.passphrase, raw[len(saltedMagic):headerLen])
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: malformed UTF-8", common.ErrDecryption)
	}
	return string(plain), nil
}

// deriveKeyIV implements OpenSSL's EVP_BytesToKey with MD5 and a single
// iteration, producing a 32-byte key followed by a 16-byte IV.
func deriveKeyIV(passphrase, salt []byte) (key, iv []byte) {
	var (
		derived []byte
		prev    []byte
	)
	for len(derived) < keySize+aes.BlockSize {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keySize], derived[keySize : keySize+aes.BlockSize]
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", common.ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: bad padding", common.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
