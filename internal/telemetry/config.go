package telemetry

import "fmt"

const (
	serviceName     = "safefs"
	defaultEndpoint = "localhost:4317"
)

// Config selects where spans go. The zero value keeps tracing off.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector, host:port.
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of root spans kept, clamped to [0, 1].
	SampleRate float64
}

// DefaultConfig returns tracing off, pointed at a local collector.
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Endpoint:       defaultEndpoint,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

func (c Config) name() string {
	if c.ServiceName == "" {
		return serviceName
	}
	return c.ServiceName
}

func (c Config) check() error {
	if c.Endpoint == "" {
		return fmt.Errorf("telemetry: endpoint is required when tracing is enabled")
	}
	return nil
}

// ProfilingConfig selects the Pyroscope server and what to sample.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, e.g. http://localhost:4040.
	Endpoint string

	// ProfileTypes names the profiles to collect; see profileTypes.
	ProfileTypes []string
}
