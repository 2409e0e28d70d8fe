package event

import "github.com/sirupsen/logrus"

// Option configures an Emitter.
type Option func(*emitterConfig)

// emitterConfig contains configuration for an emitter.
type emitterConfig struct {
	// logger receives registration and dispatch traces.
	logger logrus.FieldLogger

	// observer is notified after every dispatch.
	observer Observer
}

// defaultEmitterConfig returns the default configuration.
func defaultEmitterConfig() emitterConfig {
	return emitterConfig{
		logger:   logrus.StandardLogger(),
		observer: nopObserver{},
	}
}

// WithLogger sets the logger used by the emitter.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *emitterConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the dispatch observer.
func WithObserver(o Observer) Option {
	return func(c *emitterConfig) {
		if o != nil {
			c.observer = o
		}
	}
}
