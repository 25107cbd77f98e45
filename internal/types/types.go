// Package types provides shared type definitions for the application.
package types

// Phase is the coordinator's current state as seen by the shell.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing" // only during the final pass of a stop
)

// Settings are the parts of the configuration the coordinator observes.
// The shell owns them; the coordinator reads a fresh copy on each use.
type Settings struct {
	ModelPath string `json:"model_path"`
	Language  string `json:"language"` // passed verbatim to the transcriber

	Backend       string `json:"backend"` // "whisper-local" or "openai"
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	OpenAIModel   string `json:"openai_model,omitempty"`
}

// StatusInfo is returned to the frontend by GetStatus.
type StatusInfo struct {
	Phase       Phase  `json:"phase"`
	ModelLoaded bool   `json:"modelLoaded"`
	Version     string `json:"version"`
}

// SessionInfo summarises a finished dictation session for the frontend.
type SessionInfo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Language  string `json:"language"`  // detected, ISO 639-1
	StartedAt int64  `json:"startedAt"` // Unix milliseconds
	Duration  int64  `json:"duration"`  // milliseconds of audio
	HasAudio  bool   `json:"hasAudio"`
}
