package metrics

import "os"

// Config defines the settings of the metrics registry and its HTTP endpoint.
type Config struct {
	// Address is the listen address of the /metrics server, e.g. ":9090".
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// ServiceName is attached to every metric as the constant "service" label.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// Namespace prefixes the built-in adapter metrics. Defaults to "cratedb_llm".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// EnableDefaultCollectors registers the Go, process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`
}

// NewConfig reads the metrics configuration from the environment.
func NewConfig() Config {
	addr := os.Getenv("METRICS_ADDRESS")
	if addr == "" {
		addr = ":9090"
	}
	return Config{
		Address:                 addr,
		ServiceName:             os.Getenv("SERVICE_NAME"),
		Namespace:               os.Getenv("METRICS_NAMESPACE"),
		EnableDefaultCollectors: os.Getenv("METRICS_ENABLE_DEFAULT_COLLECTORS") != "false",
	}
}
