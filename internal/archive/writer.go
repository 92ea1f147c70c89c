// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/staranto/foundryctl/internal/foundry"
)

// Extension is appended to every archive name.
const Extension = ".fca"

var now = time.Now

// Writer encodes thread transcripts and hands them to a Sink.
type Writer struct {
	Sink       Sink
	Passphrase string
	Endpoint   string
}

// Thread archives t with msgs, oldest first, as <thread id>.fca.
func (w *Writer) Thread(ctx context.Context, t *foundry.Thread, msgs []*foundry.Message) (string, error) {
	tr := &Transcript{
		Version:         FormatVersion,
		ArchivedAt:      now().UTC(),
		Endpoint:        w.Endpoint,
		ThreadID:        t.ID,
		AgentID:         t.AgentID,
		ThreadCreatedAt: t.CreatedAt,
		Metadata:        t.Metadata,
		Messages:        make([]json.RawMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		raw := m.Raw
		if len(raw) == 0 {
			var err error
			if raw, err = json.Marshal(m); err != nil {
				return "", fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
			}
		}
		tr.Messages = append(tr.Messages, raw)
	}

	data, err := Encode(tr, w.Passphrase)
	if err != nil {
		return "", err
	}
	return w.Sink.Put(ctx, t.ID+Extension, data)
}

// ReadFile decodes the archive at path.
func ReadFile(path, passphrase string) (*Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return Decode(b, passphrase)
}

// DecodeMessages turns the archived documents back into messages.
func (t *Transcript) DecodeMessages() ([]*foundry.Message, error) {
	msgs := make([]*foundry.Message, 0, len(t.Messages))
	for i, raw := range t.Messages {
		var m foundry.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode message %d: %w", i, err)
		}
		if m.ThreadID == "" {
			m.ThreadID = t.ThreadID
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}
