package core

// ProcessorConfig describes the stream a processing session runs at.
// Channel count and sample rate stay fixed for the session; changing either
// requires re-initializing stage state.
type ProcessorConfig struct {
	SampleRate float64
	Channels   int
	MaxFrames  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns the stereo 44.1 kHz setup used before a
// device has negotiated a format.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 44100,
		Channels:   2,
		MaxFrames:  1024,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 && IsFinite(sampleRate) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the interleaved channel count.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithMaxFrames sets the largest packet, in frames, the session delivers.
// Scratch buffers are sized from it up front so processing never allocates.
func WithMaxFrames(frames int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if frames > 0 {
			cfg.MaxFrames = frames
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
