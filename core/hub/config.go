package hub

// Config holds hub tuning with environment variable support.
type Config struct {
	// SubscriberBuffer is the per-subscriber queue capacity.
	SubscriberBuffer int `env:"HUB_SUBSCRIBER_BUFFER" envDefault:"64"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SubscriberBuffer: DefaultSubscriberBuffer,
	}
}
