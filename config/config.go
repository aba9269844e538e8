// Package config loads and validates the airlink YAML configuration.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds accepted in an endpoint block.
const (
	TransportUDP       = "udp"
	TransportUDPServer = "udp-server"
	TransportTCP       = "tcp"
	TransportSerial    = "serial"
)

// Listener media accepted in a listener block.
const (
	MediumEthernet  = "ethernet"
	MediumUSBTether = "usb-tether"
)

type Config struct {
	Link      LinkConfig       `yaml:"link"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Listeners []ListenerConfig `yaml:"listeners"`
	Status    StatusConfig     `yaml:"status"`
}

// LinkConfig holds identity and timing shared by every endpoint.
type LinkConfig struct {
	SystemID         uint8 `yaml:"system_id"`
	ComponentID      uint8 `yaml:"component_id"`
	LivenessWindowMs int   `yaml:"liveness_window_ms"`
}

// LivenessWindow returns the configured window as a duration.
func (l LinkConfig) LivenessWindow() time.Duration {
	return time.Duration(l.LivenessWindowMs) * time.Millisecond
}

// EndpointConfig describes one statically configured endpoint.
type EndpointConfig struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
	Address   string `yaml:"address"`
	BaudRate  int    `yaml:"baud_rate"`
	// SecureKey, when set, is a hex-encoded 32-byte pre-shared key
	// enabling per-datagram link encryption on this endpoint.
	SecureKey string `yaml:"secure_key"`
}

// Key decodes the hex pre-shared key. Valid only after Validate.
func (e EndpointConfig) Key() ([32]byte, bool) {
	var key [32]byte
	if e.SecureKey == "" {
		return key, false
	}
	raw, err := hex.DecodeString(e.SecureKey)
	if err != nil || len(raw) != 32 {
		return key, false
	}
	copy(key[:], raw)
	return key, true
}

// ListenerConfig describes one connection watcher.
type ListenerConfig struct {
	Medium         string `yaml:"medium"`
	Interface      string `yaml:"interface"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// PollInterval returns the configured interval as a duration.
func (l ListenerConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMs) * time.Millisecond
}

// StatusConfig configures the diagnostics HTTP API.
type StatusConfig struct {
	// Listen is the bind address, empty disabling the API.
	Listen string `yaml:"listen"`
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Link.SystemID == 0 {
		c.Link.SystemID = 1
	}
	if c.Link.ComponentID == 0 {
		c.Link.ComponentID = 1
	}
	if c.Link.LivenessWindowMs == 0 {
		c.Link.LivenessWindowMs = 3000
	}
	for i := range c.Listeners {
		if c.Listeners[i].PollIntervalMs == 0 {
			c.Listeners[i].PollIntervalMs = 1000
		}
	}
}

// Validate rejects configurations the runtime could not honor.
func (c *Config) Validate() error {
	names := make(map[string]bool)
	for i, e := range c.Endpoints {
		if e.Name == "" {
			return fmt.Errorf("endpoint %d: name is required", i)
		}
		if names[e.Name] {
			return fmt.Errorf("endpoint %q: duplicate name", e.Name)
		}
		names[e.Name] = true

		switch e.Transport {
		case TransportUDP, TransportUDPServer, TransportTCP:
			if e.Address == "" {
				return fmt.Errorf("endpoint %q: address is required for %s", e.Name, e.Transport)
			}
		case TransportSerial:
			if e.Address == "" {
				return fmt.Errorf("endpoint %q: serial device path is required", e.Name)
			}
			if e.BaudRate < 0 {
				return fmt.Errorf("endpoint %q: negative baud rate", e.Name)
			}
		default:
			return fmt.Errorf("endpoint %q: unknown transport %q", e.Name, e.Transport)
		}

		if e.SecureKey != "" {
			raw, err := hex.DecodeString(e.SecureKey)
			if err != nil {
				return fmt.Errorf("endpoint %q: secure_key is not valid hex", e.Name)
			}
			if len(raw) != 32 {
				return fmt.Errorf("endpoint %q: secure_key must be 32 bytes, got %d", e.Name, len(raw))
			}
		}
	}

	for i, l := range c.Listeners {
		switch l.Medium {
		case MediumEthernet:
			if l.Interface == "" {
				return fmt.Errorf("listener %d: interface is required for ethernet", i)
			}
		case MediumUSBTether:
		default:
			return fmt.Errorf("listener %d: unknown medium %q", i, l.Medium)
		}
	}

	return nil
}
