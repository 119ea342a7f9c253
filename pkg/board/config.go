package board

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Config provides common options to open a Board.
type Config struct {
	// ID identifies the board, e.g. in MQTT topics. Defaults to the
	// machine ID.
	ID string

	// PortA and PortB are dial strings of the two ports, empty to skip.
	// e.g. unix:///var/run/tessel/port_a, tcp://host:port,
	// serial:///dev/ttyACM0:115200
	PortA string
	PortB string

	// DialTimeout limits connecting each port, 0 means no limit.
	DialTimeout time.Duration
}

var defaultConfig = Config{
	PortA:       "unix:///var/run/tessel/port_a",
	PortB:       "unix:///var/run/tessel/port_b",
	DialTimeout: 5 * time.Second,
}

func init() {
	if val := os.Getenv("COPROC_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val, ok := os.LookupEnv("COPROC_PORT_A"); ok {
		defaultConfig.PortA = val
	}
	if val, ok := os.LookupEnv("COPROC_PORT_B"); ok {
		defaultConfig.PortB = val
	}
}

// SetupFlags sets up command line flags. Flags after -config override the
// values loaded from the file.
func SetupFlags() {
	flag.Func("config", "Load board config from a TOML file.", defaultConfig.LoadFile)
	flag.StringVar(&defaultConfig.ID, "board-id", defaultConfig.ID, "Board ID, defaults to machine ID.")
	flag.StringVar(&defaultConfig.PortA, "port-a", defaultConfig.PortA, "Dial string of port A, empty to skip.")
	flag.StringVar(&defaultConfig.PortB, "port-b", defaultConfig.PortB, "Dial string of port B, empty to skip.")
	flag.DurationVar(&defaultConfig.DialTimeout, "dial-timeout", defaultConfig.DialTimeout, "Timeout connecting a port.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

type fileConfig struct {
	ID          string `toml:"id"`
	PortA       string `toml:"port_a"`
	PortB       string `toml:"port_b"`
	DialTimeout string `toml:"dial_timeout"`
}

// LoadFile overrides the values defined in a TOML file like
//
//	id = "bench"
//	port_a = "serial:///dev/ttyACM0:115200"
//	port_b = ""
//	dial_timeout = "2s"
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrapf(err, "load config %s", path)
	}
	if meta.IsDefined("id") {
		c.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("port_a") {
		c.PortA = strings.TrimSpace(raw.PortA)
	}
	if meta.IsDefined("port_b") {
		c.PortB = strings.TrimSpace(raw.PortB)
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return errors.Wrapf(err, "parse dial_timeout in %s", path)
		}
		c.DialTimeout = d
	}
	return nil
}

// BoardID returns the configured ID or the machine ID.
func (c *Config) BoardID() string {
	if c.ID != "" {
		return c.ID
	}
	return MachineID()
}

// PortDial is the dial string of a named port.
type PortDial struct {
	Name string
	Dial string
}

// Ports lists the configured ports in order.
func (c *Config) Ports() (ports []PortDial) {
	if c.PortA != "" {
		ports = append(ports, PortDial{Name: "A", Dial: c.PortA})
	}
	if c.PortB != "" {
		ports = append(ports, PortDial{Name: "B", Dial: c.PortB})
	}
	return
}

// MachineID retrieves the unique ID identifying the machine, or "coproc" if
// unavailable.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		return "coproc"
	}
	return id
}
