// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package archive writes thread transcripts before they are deleted.
//
// An archive is the 4 byte magic "FCA1", a mode byte, and the payload. The
// payload is the zstd compressed JSON transcript. In encrypted mode it is
// preceded by a 16 byte scrypt salt and a 24 byte XChaCha20-Poly1305 nonce
// and sealed with the derived key.
package archive
