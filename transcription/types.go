package transcription

// Request holds parameters for a single transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path" validate:"required"`
	// Model is the architecture name ("tiny", "base", ...) or, for custom
	// models, the checkpoint reference.
	Model string `json:"model" validate:"required"`
	// WeightsPath is the local checkpoint applied onto the architecture.
	WeightsPath string `json:"weights_path,omitempty"`
	// Device is the compute device the model is placed on ("cuda" or "cpu").
	Device string `json:"device,omitempty" validate:"omitempty,oneof=cuda cpu"`
	// Strict rejects checkpoints whose parameter names do not match the
	// architecture exactly. When false, missing and extra names are ignored.
	Strict bool `json:"strict"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Session, when set, is the model a Preloader already loaded for this
	// request. Backends transcribe with it instead of loading again.
	Session Session `json:"-" validate:"-"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text. Nil when the engine output carried
	// no text field at all, as opposed to an empty transcription.
	Text *string `json:"text,omitempty"`
	// Segments contains time-aligned transcript segments.
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// TextOr returns the transcription text, or fallback when the engine did
// not report one.
func (r *Response) TextOr(fallback string) string {
	if r == nil || r.Text == nil {
		return fallback
	}
	return *r.Text
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
}

// DurationFromSegments returns the end time of the last segment.
func DurationFromSegments(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
