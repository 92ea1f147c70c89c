// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	modePlain     byte = 0
	modeEncrypted byte = 1

	saltSize = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	// FormatVersion is the transcript JSON version.
	FormatVersion = 1
)

var magic = []byte("FCA1")

var (
	ErrNotArchive         = errors.New("not a foundryctl archive")
	ErrPassphraseRequired = errors.New("archive is encrypted; passphrase required")
	ErrWrongPassphrase    = errors.New("wrong passphrase or corrupted archive")
)

// Transcript is the archived form of a thread. Messages are the service
// documents, oldest first.
type Transcript struct {
	Version         int               `json:"version"`
	ArchivedAt      time.Time         `json:"archived_at"`
	Endpoint        string            `json:"endpoint,omitempty"`
	ThreadID        string            `json:"thread_id"`
	AgentID         string            `json:"agent_id,omitempty"`
	ThreadCreatedAt *time.Time        `json:"thread_created_at,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Messages        []json.RawMessage `json:"messages"`
}

// Encoders are safe for concurrent use and costly to build.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes t. An empty passphrase writes a plain archive.
func Encode(t *Transcript, passphrase string) ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript: %w", err)
	}
	payload := zstdEncoder.EncodeAll(raw, nil)

	var out bytes.Buffer
	out.Write(magic)

	if passphrase == "" {
		out.WriteByte(modePlain)
		out.Write(payload)
		return out.Bytes(), nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out.WriteByte(modeEncrypted)
	out.Write(salt)
	out.Write(nonce)
	// The header is authenticated as additional data.
	out.Write(aead.Seal(nil, nonce, payload, out.Bytes()[:len(magic)+1]))
	return out.Bytes(), nil
}

// Decode reverses Encode.
func Decode(b []byte, passphrase string) (*Transcript, error) {
	if len(b) < len(magic)+1 || !bytes.Equal(b[:len(magic)], magic) {
		return nil, ErrNotArchive
	}
	header, body := b[:len(magic)+1], b[len(magic)+1:]

	var payload []byte
	switch header[len(magic)] {
	case modePlain:
		payload = body
	case modeEncrypted:
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		if len(body) < saltSize+chacha20poly1305.NonceSizeX {
			return nil, ErrWrongPassphrase
		}
		salt := body[:saltSize]
		nonce := body[saltSize : saltSize+chacha20poly1305.NonceSizeX]
		aead, err := newAEAD(passphrase, salt)
		if err != nil {
			return nil, err
		}
		payload, err = aead.Open(nil, nonce, body[saltSize+chacha20poly1305.NonceSizeX:], header)
		if err != nil {
			return nil, ErrWrongPassphrase
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", ErrNotArchive, header[len(magic)])
	}

	raw, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress archive: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if t.Version > FormatVersion {
		return nil, fmt.Errorf("unsupported archive version %d", t.Version)
	}
	return &t, nil
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}
