package publisher

// Publisher represents a service for publishing batch snapshots
type Publisher interface {
	// Publish appends a message to the stream of key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
