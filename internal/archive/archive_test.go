// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/foundry"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		Version:    FormatVersion,
		ArchivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ThreadID:   "thread_1",
		Messages: []json.RawMessage{
			json.RawMessage(`{"id":"msg_1","role":"user","created_at":1700000000}`),
			json.RawMessage(`{"id":"msg_2","role":"assistant","created_at":1700000100}`),
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		mode       byte
	}{
		{"plain", "", modePlain},
		{"encrypted", "correct horse", modeEncrypted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(sampleTranscript(), tt.passphrase)
			require.NoError(t, err)
			assert.Equal(t, "FCA1", string(b[:4]))
			assert.Equal(t, tt.mode, b[4])

			got, err := Decode(b, tt.passphrase)
			require.NoError(t, err)
			assert.Equal(t, "thread_1", got.ThreadID)
			require.Len(t, got.Messages, 2)
			assert.JSONEq(t, `{"id":"msg_2","role":"assistant","created_at":1700000100}`, string(got.Messages[1]))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	sealed, err := Encode(sampleTranscript(), "secret")
	require.NoError(t, err)

	_, err = Decode(sealed, "")
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	_, err = Decode(sealed, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Decode(tampered, "secret")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = Decode([]byte("PK\x03\x04"), "")
	assert.ErrorIs(t, err, ErrNotArchive)

	_, err = Decode([]byte("FCA1\x07"), "")
	assert.ErrorIs(t, err, ErrNotArchive)
}

func TestParseS3(t *testing.T) {
	tests := []struct {
		target string
		bucket string
		prefix string
		ok     bool
	}{
		{"s3://bucket", "bucket", "", true},
		{"s3://bucket/a/b/", "bucket", "a/b", true},
		{"s3:///prefix", "", "", false},
		{"/tmp/archive", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			bucket, prefix, ok := ParseS3(tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestOpen(t *testing.T) {
	sink, err := Open(context.Background(), "/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, LocalSink{Dir: "/tmp/x"}, sink)

	_, err = Open(context.Background(), "gs://bucket")
	assert.Error(t, err)

	_, err = Open(context.Background(), "")
	assert.Error(t, err)
}

type fakePutter struct {
	keys   []string
	bodies map[string][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.bodies == nil {
		f.bodies = map[string][]byte{}
	}
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	f.bodies[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func messages(t *testing.T, docs ...string) []*foundry.Message {
	t.Helper()
	var msgs []*foundry.Message
	for _, d := range docs {
		var m foundry.Message
		require.NoError(t, json.Unmarshal([]byte(d), &m))
		msgs = append(msgs, &m)
	}
	return msgs
}

func TestWriterLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archives")
	w := &Writer{Sink: LocalSink{Dir: dir}, Passphrase: "pw", Endpoint: "https://example"}

	thread := &foundry.Thread{ID: "thread_9", AgentID: "asst_1"}
	msgs := messages(t,
		`{"id":"msg_1","thread_id":"thread_9","role":"user","content":[{"type":"text","text":{"value":"hello"}}],"created_at":1700000000}`,
		`{"id":"msg_2","thread_id":"thread_9","role":"assistant","content":[{"type":"text","text":{"value":"hi"}}],"created_at":1700000060}`,
	)

	loc, err := w.Thread(context.Background(), thread, msgs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "thread_9.fca"), loc)

	info, err := os.Stat(loc)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tr, err := ReadFile(loc, "pw")
	require.NoError(t, err)
	assert.Equal(t, "asst_1", tr.AgentID)
	assert.Equal(t, "https://example", tr.Endpoint)

	decoded, err := tr.DecodeMessages()
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "hello", decoded[0].Text)
	assert.Equal(t, "assistant", decoded[1].Role)
	require.NotNil(t, decoded[1].CreatedAt)
	assert.Equal(t, int64(1700000060), decoded[1].CreatedAt.Unix())
}

func TestWriterS3(t *testing.T) {
	put := &fakePutter{}
	w := &Writer{Sink: S3Sink{Client: put, Bucket: "bkt", Prefix: "foundry/2026"}}

	loc, err := w.Thread(context.Background(), &foundry.Thread{ID: "thread_3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3://bkt/foundry/2026/thread_3.fca", loc)
	assert.Equal(t, []string{"bkt/foundry/2026/thread_3.fca"}, put.keys)

	tr, err := Decode(put.bodies["foundry/2026/thread_3.fca"], "")
	require.NoError(t, err)
	assert.Empty(t, tr.Messages)

	put.err = errors.New("access denied")
	_, err = w.Thread(context.Background(), &foundry.Thread{ID: "thread_4"}, nil)
	assert.ErrorContains(t, err, "access denied")
}
