package realtime

// Models known to work with this client.
const (
	// ModelRealtimeDefault is the default realtime speech model.
	ModelRealtimeDefault = "gpt-4o-realtime-preview"
	// ModelRealtimeMini is the smaller realtime model.
	ModelRealtimeMini = "gpt-4o-mini-realtime-preview"
)

// Audio formats accepted by the endpoint.
const (
	// AudioFormatPCM16 is 16-bit PCM at 24kHz, mono, little-endian.
	AudioFormatPCM16 = "pcm16"
	// AudioFormatG711ULaw is G.711 u-law audio at 8kHz.
	AudioFormatG711ULaw = "g711_ulaw"
)

// Voice options for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// Modality types.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// VADServerVAD enables server-side voice activity detection.
const VADServerVAD = "server_vad"

// DialConfig contains configuration for establishing a realtime session.
type DialConfig struct {
	// Model is the model ID to negotiate.
	// Default: ModelRealtimeDefault.
	Model string

	// Sink receives inbound audio track payloads as they arrive
	// (WebRTC only). Optional; nil discards inbound media.
	Sink TrackSink

	// SendTrack, when true, attaches a local Opus RTP track for outbound
	// audio (WebRTC only). Frames are written with WriteOpusFrame.
	// When false, send audio through AppendAudio on the data channel.
	SendTrack bool
}

// TrackSink consumes payloads of the inbound audio track. Implementations
// must not block for long; a slow sink delays the track reader. Write
// errors are logged by the session and never tear the call down.
type TrackSink interface {
	WriteOpus(payload []byte) error
}

// SessionConfig contains the session.update parameters.
type SessionConfig struct {
	// Modalities specifies the output modalities.
	// Default: ["text", "audio"]
	Modalities []string `json:"modalities,omitzero"`

	// Instructions is the system prompt for the session.
	Instructions string `json:"instructions,omitzero"`

	// Voice is the voice ID for audio output.
	Voice string `json:"voice,omitzero"`

	// InputAudioFormat specifies the input audio format.
	// Default: pcm16
	InputAudioFormat string `json:"input_audio_format,omitzero"`

	// OutputAudioFormat specifies the output audio format.
	// Default: pcm16
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// TurnDetection configures server-side voice activity detection.
	// Nil keeps the endpoint's defaults.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`

	// Temperature controls randomness (0.6-1.2).
	Temperature *float64 `json:"temperature,omitzero"`

	// MaxResponseOutputTokens limits the output length.
	MaxResponseOutputTokens *int `json:"max_response_output_tokens,omitzero"`
}

// TurnDetection configures voice activity detection. Zero-valued fields
// fall back to the endpoint's defaults.
type TurnDetection struct {
	// Type is the VAD mode. Default: server_vad.
	Type string `json:"type,omitzero"`

	// Threshold is the VAD sensitivity (0.0-1.0). Default: 0.5.
	Threshold float64 `json:"threshold,omitzero"`

	// PrefixPaddingMs is audio included before detected speech start (ms).
	// Default: 300.
	PrefixPaddingMs int `json:"prefix_padding_ms,omitzero"`

	// SilenceDurationMs is the trailing silence that ends a turn (ms).
	// Default: 500.
	SilenceDurationMs int `json:"silence_duration_ms,omitzero"`

	// CreateResponse specifies whether the server auto-creates a response
	// at end of speech. Default: true.
	CreateResponse *bool `json:"create_response,omitzero"`
}

// ResponseCreateOptions contains per-response overrides for response.create.
// Pass nil for server defaults.
type ResponseCreateOptions struct {
	// Modalities specifies the output modalities for this response.
	Modalities []string `json:"modalities,omitzero"`

	// Instructions override for this response only.
	Instructions string `json:"instructions,omitzero"`

	// Voice override for this response.
	Voice string `json:"voice,omitzero"`

	// Temperature override for this response.
	Temperature *float64 `json:"temperature,omitzero"`

	// MaxOutputTokens limits the output length for this response.
	MaxOutputTokens *int `json:"max_output_tokens,omitzero"`
}

// SessionResource is the session state echoed back by the server.
type SessionResource struct {
	ID                string         `json:"id,omitzero"`
	Object            string         `json:"object,omitzero"`
	Model             string         `json:"model,omitzero"`
	ExpiresAt         int64          `json:"expires_at,omitzero"`
	Modalities        []string       `json:"modalities,omitzero"`
	Instructions      string         `json:"instructions,omitzero"`
	Voice             string         `json:"voice,omitzero"`
	InputAudioFormat  string         `json:"input_audio_format,omitzero"`
	OutputAudioFormat string         `json:"output_audio_format,omitzero"`
	TurnDetection     *TurnDetection `json:"turn_detection,omitzero"`
	Temperature       float64        `json:"temperature,omitzero"`
}

// ConversationItem represents one item in the conversation.
type ConversationItem struct {
	ID      string        `json:"id,omitzero"`
	Object  string        `json:"object,omitzero"`
	Type    string        `json:"type,omitzero"` // "message"
	Status  string        `json:"status,omitzero"`
	Role    string        `json:"role,omitzero"` // "user", "assistant", "system"
	Content []ContentPart `json:"content,omitzero"`
}

// ContentPart is one ordered block of an item's content.
type ContentPart struct {
	// Type discriminates the block: "input_text", "input_audio",
	// "input_image", "text", "audio".
	Type string `json:"type,omitzero"`

	// Text holds the text for text blocks.
	Text string `json:"text,omitzero"`

	// Audio holds base64 audio for audio blocks.
	Audio string `json:"audio,omitzero"`

	// Transcript accompanies audio blocks.
	Transcript string `json:"transcript,omitzero"`

	// ImageURL holds an https or data URL for input_image blocks.
	ImageURL string `json:"image_url,omitzero"`
}

// ResponseResource is the state of a model response.
type ResponseResource struct {
	ID     string             `json:"id,omitzero"`
	Object string             `json:"object,omitzero"`
	Status string             `json:"status,omitzero"` // "in_progress", "completed", "cancelled", "failed"
	Output []ConversationItem `json:"output,omitzero"`
	Usage  *Usage             `json:"usage,omitzero"`
}

// Usage contains token usage for a completed response.
type Usage struct {
	TotalTokens  int `json:"total_tokens,omitzero"`
	InputTokens  int `json:"input_tokens,omitzero"`
	OutputTokens int `json:"output_tokens,omitzero"`
}
