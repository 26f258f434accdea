// Package vault reads encrypted media from disk. At-rest layout is a
// 16-byte IV followed by AES-128-CBC ciphertext with PKCS#7 padding.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"os"

	"go.uber.org/zap"

	"github.com/martin13396/secure-media-library/pkg/logger"
)

// placeholderWebP is a minimal 1x1 black WebP, served whenever an asset
// cannot be read or decrypted so image endpoints always return a valid body.
var placeholderWebP = []byte{
	'R', 'I', 'F', 'F', 0x24, 0x00, 0x00, 0x00,
	'W', 'E', 'B', 'P', 'V', 'P', '8', ' ',
	0x18, 0x00, 0x00, 0x00, 0x30, 0x01, 0x00, 0x9d,
	0x01, 0x2a, 0x01, 0x00, 0x01, 0x00, 0x01, 0x40,
	0x25, 0xa4, 0x00, 0x03, 0x70, 0x00, 0xfe, 0xfb,
	0x94, 0x00, 0x00,
}

// Placeholder returns a copy of the fallback image
func Placeholder() []byte {
	out := make([]byte, len(placeholderWebP))
	copy(out, placeholderWebP)
	return out
}

// Reader decrypts stored assets. Decryption never surfaces an error to the
// HTTP path; a broken asset degrades to the placeholder image.
type Reader struct {
	log *logger.Logger
}

// NewReader creates a new Reader
func NewReader(log *logger.Logger) *Reader {
	if log == nil {
		log = logger.Get()
	}
	return &Reader{log: log}
}

// ReadRaw returns the stored bytes without decryption. Used for HLS
// segments, which the player decrypts itself.
func (r *Reader) ReadRaw(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadDecrypted reads and decrypts an asset. Any structural problem with
// the file, the key, or the plaintext yields the placeholder image.
func (r *Reader) ReadDecrypted(path, keyHex string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Warn("asset unreadable, serving placeholder",
			zap.String("path", path), zap.Error(err))
		return Placeholder()
	}
	return r.Decrypt(data, keyHex, path)
}

// Decrypt applies the at-rest format to data. The stated IV is the file's
// first 16 bytes; if the result fails validation, a zero IV is tried before
// giving up. CBC itself cannot fail, so failure is detected by the PKCS#7
// padding and the WebP container magic.
func (r *Reader) Decrypt(data []byte, keyHex, name string) []byte {
	if len(data) < 32 || len(data)%aes.BlockSize != 0 {
		r.log.Warn("asset malformed, serving placeholder",
			zap.String("asset", name), zap.Int("size", len(data)))
		return Placeholder()
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
		r.log.Error("content key unusable, serving placeholder", zap.String("asset", name))
		return Placeholder()
	}

	iv := data[:aes.BlockSize]
	ct := data[aes.BlockSize:]

	if plain, ok := decryptCBC(key, iv, ct); ok {
		return plain
	}

	// Ingestion writes some placeholders with a zero IV and no IV prefix;
	// retry treating the whole file as ciphertext.
	zeroIV := make([]byte, aes.BlockSize)
	if plain, ok := decryptCBC(key, zeroIV, data); ok {
		r.log.Warn("asset decrypted with zero IV fallback", zap.String("asset", name))
		return plain
	}

	r.log.Error("asset failed decryption, serving placeholder", zap.String("asset", name))
	return Placeholder()
}

// decryptCBC decrypts and validates one candidate interpretation
func decryptCBC(key, iv, ct []byte) ([]byte, bool) {
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, false
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false
	}

	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, ok := stripPadding(plain)
	if !ok {
		return nil, false
	}

	if !validWebP(plain) {
		return nil, false
	}

	return plain, true
}

// stripPadding removes PKCS#7 padding, rejecting impossible pad values
func stripPadding(plain []byte) ([]byte, bool) {
	if len(plain) == 0 {
		return nil, false
	}
	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(plain) {
		return nil, false
	}
	for _, b := range plain[len(plain)-pad:] {
		if int(b) != pad {
			return nil, false
		}
	}
	return plain[:len(plain)-pad], true
}

// validWebP checks the RIFF container magic: "RIFF" at offset 0 and
// "WEBP" at offset 8.
func validWebP(plain []byte) bool {
	if len(plain) < 12 {
		return false
	}
	return string(plain[0:4]) == "RIFF" && string(plain[8:12]) == "WEBP"
}
