package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
)

// Encryptor provides a generic interface for encryption/decryption
type Encryptor interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// NewAESEncryptor creates a new AES-GCM encryptor
func NewAESEncryptor(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryption
	}

	return &aesEncryptor{
		gcm: gcm,
	}, nil
}

type aesEncryptor struct {
	gcm cipher.AEAD
}

func (a *aesEncryptor) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ErrEncryption
	}

	return a.gcm.Seal(nonce, nonce, data, nil), nil
}

func (a *aesEncryptor) Decrypt(data []byte) ([]byte, error) {
	nonceSize := a.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecryption
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := a.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}

	return plaintext, nil
}

// FieldCiphers holds the two independent field-level ciphers. Record
// covers diagnosis text and appointment reasons; IC covers identity
// card numbers. The keys are never interchangeable.
type FieldCiphers struct {
	Record Encryptor
	IC     Encryptor
}

// NewFieldCiphers builds both ciphers from their respective keys.
func NewFieldCiphers(recordKey, icKey []byte) (*FieldCiphers, error) {
	record, err := NewAESEncryptor(recordKey)
	if err != nil {
		return nil, err
	}
	ic, err := NewAESEncryptor(icKey)
	if err != nil {
		return nil, err
	}
	return &FieldCiphers{Record: record, IC: ic}, nil
}

// EncryptString is a convenience wrapper for string fields. Empty
// plaintext encrypts to nil so optional columns stay NULL.
func EncryptString(e Encryptor, plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	return e.Encrypt([]byte(plaintext))
}

// DecryptString decrypts a string field. Nil ciphertext decrypts to
// the empty string; a corrupt blob returns ErrDecryption.
func DecryptString(e Encryptor, ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	plain, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
