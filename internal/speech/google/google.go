// Package google transcribes WAV audio with Cloud Speech-to-Text.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	gspeech "smartscheduler/internal/speech"
)

const DefaultLanguage = "en-US"

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

type Transcriber struct {
	recognize recognizeFunc
	close     func() error
	language  string
}

// New dials Speech-to-Text. Credentials come from opts or, when none are
// given, from Application Default Credentials.
func New(ctx context.Context, language string, opts ...option.ClientOption) (*Transcriber, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	t := newTranscriber(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}, language)
	t.close = client.Close
	return t, nil
}

func newTranscriber(fn recognizeFunc, language string) *Transcriber {
	if language == "" {
		language = DefaultLanguage
	}
	return &Transcriber{recognize: fn, language: language, close: func() error { return nil }}
}

func (t *Transcriber) Close() error {
	return t.close()
}

// Transcribe sends the PCM samples of a WAV clip and joins the top
// alternative of every result.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	h, err := gspeech.ParseWAVHeader(audio)
	if err != nil {
		return "", err
	}
	if h.DataSize == 0 {
		return "", gspeech.ErrNoSpeech
	}

	resp, err := t.recognize(ctx, recognizeRequest(h, audio, t.language))
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", gspeech.ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}

func recognizeRequest(h gspeech.WAVHeader, audio []byte, language string) *speechpb.RecognizeRequest {
	samples := audio[h.DataOffset : h.DataOffset+int(h.DataSize)]
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(h.SampleRate),
			AudioChannelCount: int32(h.NumChannels),
			LanguageCode:      language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: samples},
		},
	}
}
