package veneer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// Encryption errors.
var (
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Encryptor seals rendered values into opaque tokens and opens them again.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// newGCM builds an AES-GCM AEAD, checking the key size.
func newGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: must be 16, 24, or 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext with a random nonce prepended to the output.
func seal(gcm cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal.
func open(gcm cipher.AEAD, ciphertext []byte) ([]byte, error) {
	n := gcm.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextShort
	}
	plaintext, err := gcm.Open(nil, ciphertext[:n], ciphertext[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// aesEncryptor implements AES-GCM encryption.
type aesEncryptor struct {
	gcm cipher.AEAD
}

// AES returns an AES-GCM encryptor.
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func AES(key []byte) (Encryptor, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &aesEncryptor{gcm: gcm}, nil
}

func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return seal(e.gcm, plaintext)
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	return open(e.gcm, ciphertext)
}

// envelopeEncryptor seals each value under a fresh data key, itself sealed
// by the master key. Layout: [2-byte wrapped key length][wrapped key][data].
type envelopeEncryptor struct {
	master cipher.AEAD
}

// Envelope returns an envelope encryptor. Master key must be 16, 24, or 32 bytes.
func Envelope(masterKey []byte) (Encryptor, error) {
	gcm, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}
	return &envelopeEncryptor{master: gcm}, nil
}

func (e *envelopeEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return nil, err
	}
	data, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	body, err := seal(data, plaintext)
	if err != nil {
		return nil, err
	}
	wrapped, err := seal(e.master, dataKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2, 2+len(wrapped)+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(wrapped))) // #nosec G115 -- 60 bytes
	out = append(out, wrapped...)
	return append(out, body...), nil
}

func (e *envelopeEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 2 {
		return nil, ErrCiphertextShort
	}
	n := int(binary.BigEndian.Uint16(ciphertext))
	if len(ciphertext) < 2+n {
		return nil, ErrCiphertextShort
	}
	dataKey, err := open(e.master, ciphertext[2:2+n])
	if err != nil {
		return nil, err
	}
	data, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	return open(data, ciphertext[2+n:])
}
