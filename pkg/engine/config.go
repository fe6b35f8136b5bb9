package engine

// Config describes how to load the sherpa-onnx offline Whisper-family
// model used for transcription.
type Config struct {
	Encoder    string
	Decoder    string
	Tokens     string
	Language   string // "" triggers auto-detection
	Provider   string // "cpu", "cuda", "coreml"
	NumThreads int
	SampleRate int
	Debug      bool
}
