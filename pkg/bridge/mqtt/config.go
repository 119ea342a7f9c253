package mqtt

import (
	"flag"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config provides options to connect the bridge.
type Config struct {
	// URL of the MQTT broker, the path is the topic prefix.
	// e.g. mqtt://localhost:1883/coproc/
	URL string
}

var defaultConfig = Config{
	URL: "mqtt://localhost:1883/coproc/",
}

func init() {
	if val := os.Getenv("COPROC_MQTT_URL"); val != "" {
		defaultConfig.URL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "mqtt", defaultConfig.URL, "MQTT broker URL.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ClientOptions creates the client options and topic prefix. The client ID
// defaults to coproc-<clientID> truncated to fit the 23 bytes limit of
// MQTT 3.1.
func (c *Config) ClientOptions(clientID string) (*paho.ClientOptions, string, error) {
	opts, prefix, err := ClientOptionsFromURL(c.URL)
	if err != nil {
		return nil, "", err
	}
	if opts.ClientID == "" && clientID != "" {
		if len(clientID) > 16 {
			clientID = clientID[:16]
		}
		opts.SetClientID("coproc-" + clientID)
	}
	return opts, prefix, nil
}

// NewQueue creates a Queue.
func (c *Config) NewQueue(clientID string) (*Queue, error) {
	opts, prefix, err := c.ClientOptions(clientID)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, prefix), nil
}
