package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookline/config"

	speech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

const maxMediaBytes = 5 * 1024 * 1024

// Transcriber turns WhatsApp voice notes into text through Google Cloud
// Speech-to-Text. Failures are never fatal to the pipeline: the webhook
// answers with a polite "couldn't hear that" reply instead.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL, languageCode string) (string, error)
}

// GoogleTranscriber is the production implementation.
type GoogleTranscriber struct {
	client     *speech.Client
	httpClient *http.Client
}

func NewGoogleTranscriber(ctx context.Context) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if config.AppConfig.GoogleCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.AppConfig.GoogleCredentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleTranscriber{
		client:     client,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Transcribe fetches the Twilio media URL and runs synchronous recognition.
// WhatsApp voice notes arrive as OGG/Opus at 16kHz.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, mediaURL, languageCode string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid media url: %w", err)
	}
	req.SetBasicAuth(config.AppConfig.TwilioAccountSID, config.AppConfig.TwilioAuthToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media fetch returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return "", fmt.Errorf("media read failed: %w", err)
	}
	if len(audio) > maxMediaBytes {
		return "", fmt.Errorf("voice note exceeds %d bytes", maxMediaBytes)
	}

	if languageCode == "" {
		languageCode = "en-US"
	}
	recResp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz: 16000,
			LanguageCode:    languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var transcript string
	for _, result := range recResp.Results {
		if len(result.Alternatives) > 0 {
			transcript += result.Alternatives[0].Transcript
		}
	}
	if transcript == "" {
		return "", fmt.Errorf("no speech recognized")
	}
	return transcript, nil
}
