// Package config loads a Session's configuration from YAML, the way this
// stack's other services externalize their tunables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lanewire/lane"
	"lanewire/session"
)

// laneKindNames maps the YAML-facing lane kind strings onto lane.Kind.
var laneKindNames = map[string]lane.Kind{
	"unreliable_unordered": lane.UnreliableUnordered,
	"unreliable_sequenced": lane.UnreliableSequenced,
	"reliable_unordered":   lane.ReliableUnordered,
	"reliable_ordered":     lane.ReliableOrdered,
}

// UnknownLaneKindError reports a YAML lane kind string with no known
// mapping.
type UnknownLaneKindError struct {
	Name string
}

func (e *UnknownLaneKindError) Error() string {
	return fmt.Sprintf("config: unknown lane kind %q", e.Name)
}

// File is the on-disk YAML shape of a SessionConfig.
type File struct {
	SendLanes []string `yaml:"send_lanes"`
	RecvLanes []string `yaml:"recv_lanes"`

	MaxMemoryUsage int `yaml:"max_memory_usage"`

	SendBytesPerSec     int   `yaml:"send_bytes_per_sec"`
	LaneSendBytesPerSec []int `yaml:"lane_send_bytes_per_sec"`

	DefaultPacketCapacity     int     `yaml:"default_packet_capacity"`
	PacketLostThresholdFactor float64 `yaml:"packet_lost_threshold_factor"`
	ResendFactor              float64 `yaml:"resend_factor"`
	MaxFragLen                int     `yaml:"max_frag_len"`
}

// Load reads and parses a YAML file at path into a session.Config.
func Load(path string) (session.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return session.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes into a session.Config.
func Parse(b []byte) (session.Config, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return session.Config{}, fmt.Errorf("config: parse: %w", err)
	}

	cfg := session.DefaultConfig()

	sendLanes, err := parseLaneKinds(f.SendLanes)
	if err != nil {
		return session.Config{}, err
	}
	recvLanes, err := parseLaneKinds(f.RecvLanes)
	if err != nil {
		return session.Config{}, err
	}
	cfg.SendLanes = sendLanes
	cfg.RecvLanes = recvLanes

	if f.MaxMemoryUsage > 0 {
		cfg.MaxMemoryUsage = f.MaxMemoryUsage
	}
	if f.SendBytesPerSec > 0 {
		cfg.SendBytesPerSec = f.SendBytesPerSec
	}
	if len(f.LaneSendBytesPerSec) > 0 {
		cfg.LaneSendBytesPerSec = f.LaneSendBytesPerSec
	}
	if f.DefaultPacketCapacity > 0 {
		cfg.DefaultPacketCapacity = f.DefaultPacketCapacity
	}
	if f.PacketLostThresholdFactor > 0 {
		cfg.PacketLostThresholdFactor = f.PacketLostThresholdFactor
	}
	if f.ResendFactor > 0 {
		cfg.ResendFactor = f.ResendFactor
	}
	if f.MaxFragLen > 0 {
		cfg.MaxFragLen = f.MaxFragLen
	}

	return cfg, nil
}

func parseLaneKinds(names []string) ([]lane.Kind, error) {
	kinds := make([]lane.Kind, len(names))
	for i, n := range names {
		k, ok := laneKindNames[n]
		if !ok {
			return nil, &UnknownLaneKindError{Name: n}
		}
		kinds[i] = k
	}
	return kinds, nil
}
