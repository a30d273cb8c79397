package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/filekind"
	"github.com/ilkoid/notesorter/pkg/llm"
)

type stubTranscriber struct {
	text  string
	err   error
	calls int
	name  string
}

func (s *stubTranscriber) Transcribe(_ context.Context, filename string, _ []byte) (string, error) {
	s.calls++
	s.name = filename
	return s.text, s.err
}

type stubVision struct {
	reply string
	err   error
	got   []llm.Message
}

func (s *stubVision) Generate(_ context.Context, messages []llm.Message, _ ...llm.GenerateOption) (llm.Message, error) {
	s.got = messages
	return llm.Message{Role: llm.RoleAssistant, Content: s.reply}, s.err
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestExtract_TextPassThrough(t *testing.T) {
	tr := &stubTranscriber{}
	vis := &stubVision{}
	s := New(tr, vis, config.ImageProcConfig{})

	text, err := s.Extract(context.Background(), filekind.Text, "note1.txt", []byte("Intruder detected near sector 7\n"))
	require.NoError(t, err)
	assert.Equal(t, "Intruder detected near sector 7\n", text, "text is not trimmed or altered")
	assert.Zero(t, tr.calls)
	assert.Nil(t, vis.got)
}

func TestExtract_Unknown(t *testing.T) {
	s := New(nil, nil, config.ImageProcConfig{})
	text, err := s.Extract(context.Background(), filekind.Unknown, "facts.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_Audio(t *testing.T) {
	tr := &stubTranscriber{text: "Replaced faulty servo motor"}
	s := New(tr, nil, config.ImageProcConfig{})

	text, err := s.Extract(context.Background(), filekind.Audio, "rec.mp3", []byte("ID3"))
	require.NoError(t, err)
	assert.Equal(t, "Replaced faulty servo motor", text)
	assert.Equal(t, "rec.mp3", tr.name)
}

func TestExtract_AudioErrors(t *testing.T) {
	boom := errors.New("503 from whisper")

	_, err := New(&stubTranscriber{err: boom}, nil, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Audio, "rec.mp3", nil)
	assert.ErrorIs(t, err, boom)

	_, err = New(&stubTranscriber{}, nil, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Audio, "rec.mp3", nil)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = New(nil, nil, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Audio, "rec.mp3", nil)
	assert.ErrorIs(t, err, ErrNoCollaborator)
}

func TestExtract_ImageOCR(t *testing.T) {
	vis := &stubVision{reply: "```\nRepair log: servo replaced\n```"}
	s := New(nil, vis, config.ImageProcConfig{MaxWidth: 4, Quality: 80})

	text, err := s.Extract(context.Background(), filekind.Image, "scan.png", tinyPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "Repair log: servo replaced", text)

	require.Len(t, vis.got, 1)
	msg := vis.got[0]
	assert.Equal(t, OCRInstruction, msg.Content)
	require.Len(t, msg.Images, 1)
	require.True(t, strings.HasPrefix(msg.Images[0], "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(msg.Images[0], "data:image/jpeg;base64,"))
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
}

func TestExtract_ImageUndecodableIsSentAsIs(t *testing.T) {
	vis := &stubVision{reply: "text"}
	s := New(nil, vis, config.ImageProcConfig{})

	_, err := s.Extract(context.Background(), filekind.Image, "scan.png", []byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("raw")), vis.got[0].Images[0])
}

func TestExtract_ImageErrors(t *testing.T) {
	boom := errors.New("vision down")

	_, err := New(nil, &stubVision{err: boom}, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Image, "scan.png", tinyPNG(t))
	assert.ErrorIs(t, err, boom)

	_, err = New(nil, &stubVision{reply: "  "}, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Image, "scan.png", tinyPNG(t))
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = New(nil, nil, config.ImageProcConfig{}).
		Extract(context.Background(), filekind.Image, "scan.png", tinyPNG(t))
	assert.ErrorIs(t, err, ErrNoCollaborator)
}
