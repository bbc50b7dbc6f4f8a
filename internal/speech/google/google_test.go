package google

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gspeech "smartscheduler/internal/speech"
)

func result(transcripts ...string) *speechpb.SpeechRecognitionResult {
	r := &speechpb.SpeechRecognitionResult{}
	for _, s := range transcripts {
		r.Alternatives = append(r.Alternatives, &speechpb.SpeechRecognitionAlternative{Transcript: s})
	}
	return r
}

func TestTranscribe_BuildsRequestFromHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	var got *speechpb.RecognizeRequest
	tr := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		got = req
		return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
			result("schedule a meeting", "schedule the meeting"),
			result(),
			result(" tomorrow at 2 pm "),
		}}, nil
	}, "")

	text, err := tr.Transcribe(context.Background(), gspeech.EncodeWAV(pcm, 44100, 2))
	require.NoError(t, err)
	assert.Equal(t, "schedule a meeting tomorrow at 2 pm", text)

	require.NotNil(t, got)
	cfg := got.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, cfg.GetEncoding())
	assert.Equal(t, int32(44100), cfg.GetSampleRateHertz())
	assert.Equal(t, int32(2), cfg.GetAudioChannelCount())
	assert.Equal(t, DefaultLanguage, cfg.GetLanguageCode())
	assert.Equal(t, pcm, got.GetAudio().GetContent())
}

func TestTranscribe_NoResults(t *testing.T) {
	tr := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return &speechpb.RecognizeResponse{}, nil
	}, "en-GB")

	_, err := tr.Transcribe(context.Background(), gspeech.EncodeWAV([]byte{0, 0}, 16000, 1))
	assert.ErrorIs(t, err, gspeech.ErrNoSpeech)
}

func TestTranscribe_SilentClipSkipsBackend(t *testing.T) {
	tr := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		t.Fatal("recognize must not be called for an empty clip")
		return nil, nil
	}, "")

	_, err := tr.Transcribe(context.Background(), gspeech.EncodeWAV(nil, 16000, 1))
	assert.ErrorIs(t, err, gspeech.ErrNoSpeech)
}

func TestTranscribe_Errors(t *testing.T) {
	boom := errors.New("quota exceeded")
	tr := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return nil, boom
	}, "")

	_, err := tr.Transcribe(context.Background(), gspeech.EncodeWAV([]byte{0, 0}, 16000, 1))
	assert.ErrorIs(t, err, boom)

	_, err = tr.Transcribe(context.Background(), []byte("definitely not a wav"))
	assert.ErrorIs(t, err, gspeech.ErrInvalidWAV)
	assert.NoError(t, tr.Close())
}
