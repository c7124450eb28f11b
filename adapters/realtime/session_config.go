package realtime

import "fmt"

// Enumerable options for the upstream session configuration frame.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"

	AudioFormatPCM16    = "pcm16"
	AudioFormatG711ULaw = "g711_ulaw"
	AudioFormatG711ALaw = "g711_alaw"

	TurnDetectionServerVAD = "server_vad"

	defaultVoice              = "alloy"
	defaultTranscriptionModel = "whisper-1"
)

var (
	validVoices = map[string]bool{
		"alloy": true, "ash": true, "ballad": true, "coral": true,
		"echo": true, "sage": true, "shimmer": true, "verse": true,
	}
	validAudioFormats = map[string]bool{
		AudioFormatPCM16:    true,
		AudioFormatG711ULaw: true,
		AudioFormatG711ALaw: true,
	}
)

// TurnDetection configures the upstream's server-side voice activity
// detection thresholds.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

// SessionConfig is the static configuration payload applied to the
// upstream session right after the websocket handshake.
type SessionConfig struct {
	Modalities         []string      `json:"modalities"`
	Voice              string        `json:"voice"`
	InputAudioFormat   string        `json:"input_audio_format"`
	OutputAudioFormat  string        `json:"output_audio_format"`
	TranscriptionModel string        `json:"-"`
	TurnDetection      TurnDetection `json:"turn_detection"`
}

// DefaultSessionConfig returns the configuration used for voice talk
// sessions: both modalities, PCM16 audio in and out, server VAD.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Modalities:         []string{ModalityText, ModalityAudio},
		Voice:              defaultVoice,
		InputAudioFormat:   AudioFormatPCM16,
		OutputAudioFormat:  AudioFormatPCM16,
		TranscriptionModel: defaultTranscriptionModel,
		TurnDetection: TurnDetection{
			Type:              TurnDetectionServerVAD,
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 500,
		},
	}
}

// Validate checks every option against its enumerable set.
func (c SessionConfig) Validate() error {
	if len(c.Modalities) == 0 {
		return fmt.Errorf("at least one modality is required")
	}
	for _, m := range c.Modalities {
		if m != ModalityText && m != ModalityAudio {
			return fmt.Errorf("unknown modality %q", m)
		}
	}
	if !validVoices[c.Voice] {
		return fmt.Errorf("unknown voice %q", c.Voice)
	}
	if !validAudioFormats[c.InputAudioFormat] {
		return fmt.Errorf("unknown input audio format %q", c.InputAudioFormat)
	}
	if !validAudioFormats[c.OutputAudioFormat] {
		return fmt.Errorf("unknown output audio format %q", c.OutputAudioFormat)
	}
	if c.TurnDetection.Type != TurnDetectionServerVAD {
		return fmt.Errorf("unknown turn detection type %q", c.TurnDetection.Type)
	}
	if c.TurnDetection.Threshold < 0 || c.TurnDetection.Threshold > 1 {
		return fmt.Errorf("turn detection threshold must be between 0 and 1, got %f", c.TurnDetection.Threshold)
	}
	if c.TurnDetection.PrefixPaddingMs < 0 || c.TurnDetection.SilenceDurationMs < 0 {
		return fmt.Errorf("turn detection paddings must not be negative")
	}
	return nil
}

type sessionUpdatePayload struct {
	Modalities              []string      `json:"modalities"`
	Voice                   string        `json:"voice"`
	InputAudioFormat        string        `json:"input_audio_format"`
	OutputAudioFormat       string        `json:"output_audio_format"`
	InputAudioTranscription struct {
		Model string `json:"model"`
	} `json:"input_audio_transcription"`
	TurnDetection TurnDetection `json:"turn_detection"`
}

type sessionUpdateEvent struct {
	Type    string               `json:"type"`
	Session sessionUpdatePayload `json:"session"`
}

// updateEvent renders the configuration as a session.update frame.
func (c SessionConfig) updateEvent() sessionUpdateEvent {
	event := sessionUpdateEvent{
		Type: "session.update",
		Session: sessionUpdatePayload{
			Modalities:        c.Modalities,
			Voice:             c.Voice,
			InputAudioFormat:  c.InputAudioFormat,
			OutputAudioFormat: c.OutputAudioFormat,
			TurnDetection:     c.TurnDetection,
		},
	}
	event.Session.InputAudioTranscription.Model = c.TranscriptionModel
	return event
}
