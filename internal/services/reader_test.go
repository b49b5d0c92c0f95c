package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Placeholders(t *testing.T) {
	r := NewReader(staticBuffers{}, NewSpeaker(&fakeSynth{}))

	resp, err := r.Open(ReaderArabic)
	require.NoError(t, err)
	assert.True(t, resp.Open)
	assert.Equal(t, "আরবি টেক্সট", resp.Title)
	assert.Equal(t, "কোনো টেক্সট নেই", resp.Content)
	assert.Equal(t, 24, resp.FontSize)

	resp, err = r.Open(ReaderBangla)
	require.NoError(t, err)
	assert.Equal(t, "বাংলা অনুবাদ", resp.Title)
	assert.Equal(t, "কোনো অনুবাদ নেই", resp.Content)
	assert.Equal(t, 20, resp.FontSize)

	_, err = r.Open("latin")
	assert.Error(t, err)

	sr, err := r.ToggleSpeech()
	assert.ErrorIs(t, err, ErrNothingToRead, "the placeholder is never read aloud")
	require.NotNil(t, sr.Notice)
	assert.Equal(t, "পড়ার জন্য কোনো টেক্সট নেই।", sr.Notice.Message)
}

func TestReader_FontAndDark(t *testing.T) {
	r := NewReader(staticBuffers{arabic: "نص", bangla: "লেখা"}, NewSpeaker(&fakeSynth{}))
	_, err := r.Open(ReaderBangla)
	require.NoError(t, err)

	assert.Equal(t, 22, r.ChangeFont(2).FontSize)
	assert.Equal(t, 40, r.ChangeFont(100).FontSize)
	assert.Equal(t, 12, r.ChangeFont(-100).FontSize)

	assert.True(t, r.ToggleDark().Dark)
	assert.False(t, r.ToggleDark().Dark)

	resp := r.Close()
	assert.False(t, resp.Open)
	assert.Empty(t, resp.Content)
}

func TestReader_OpenAndCloseStopSpeech(t *testing.T) {
	sp := NewSpeaker(&fakeSynth{untilCancel: true})
	r := NewReader(staticBuffers{arabic: "نص", bangla: "লেখা"}, sp)

	_, err := r.Open(ReaderBangla)
	require.NoError(t, err)
	sr, err := r.ToggleSpeech()
	require.NoError(t, err)
	assert.True(t, sr.Speaking)

	resp, err := r.Open(ReaderArabic)
	require.NoError(t, err)
	assert.False(t, resp.Speaking)
	assert.Equal(t, "نص", resp.Content)

	_, err = r.ToggleSpeech()
	require.NoError(t, err)
	assert.True(t, sp.Speaking())
	r.Close()
	assert.False(t, sp.Speaking())

	sr, err = r.ToggleSpeech()
	assert.ErrorIs(t, err, ErrNothingToRead, "nothing is read while the reader is closed")
	assert.False(t, sr.Speaking)
}
