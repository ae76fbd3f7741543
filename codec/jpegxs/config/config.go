/*
DESCRIPTION
  config.go provides the configuration settings for a jpegxs decoder
  instance, grounded on revid/config.Config's flat-struct-plus-Update
  pattern.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a jpegxs decoder.
package config

import (
	"strconv"

	"github.com/ausocean/utils/logging"
)

// PacketizationMode selects how the decoder ingests bitstream data.
type PacketizationMode int

const (
	// PacketizationFrame requires each send_frame call to carry one
	// complete codestream; constant or variable bitrate streams are
	// both accepted.
	PacketizationFrame PacketizationMode = iota

	// PacketizationPacket accumulates bitstream chunks from send_packet
	// calls, and is only valid for constant-bitrate streams.
	PacketizationPacket
)

const (
	// DefaultRingSize is the base reorder-ring size added to N (the
	// universal worker count), per section 5.
	DefaultRingSize = 20

	// DefaultInstancePoolSize is the number of pre-allocated
	// DecoderInstances kept in the pool, per section 5.
	DefaultInstancePoolSize = 3
)

// Config provides the tunables for a jpegxs decoder instance. A new Config
// must be populated (or left at its zero value, which Validate will
// default) before being passed to jpegxs.Init.
type Config struct {
	// Threads is the caller's requested thread budget; the scheduler
	// derives N = max(1, Threads-2) universal workers from it, per
	// section 5.
	Threads uint

	// RingSize overrides the reorder-ring size (N+DefaultRingSize by
	// default); 0 means "use the default".
	RingSize uint

	// InstancePoolSize overrides the decoder instance pool size; 0 means
	// "use DefaultInstancePoolSize".
	InstancePoolSize uint

	// PacketizationMode selects frame- or packet-based ingress.
	PacketizationMode PacketizationMode

	// ProxyMode, when true, has get_frame return descriptors that
	// reference the frame-wide coefficient store directly rather than a
	// copied output buffer; only safe when the caller consumes frames
	// before the next send_frame reuses the backing DecoderInstance.
	ProxyMode bool

	// Logger receives decoder diagnostics. A nil Logger is replaced by a
	// discard logger in Validate.
	Logger logging.Logger
}

// Validate fills in zero-valued fields with their defaults.
func (c *Config) Validate() error {
	if c.Threads == 0 {
		c.Threads = 1
	}
	if c.RingSize == 0 {
		c.RingSize = DefaultRingSize
	}
	if c.InstancePoolSize == 0 {
		c.InstancePoolSize = DefaultInstancePoolSize
	}
	return nil
}

// Update takes a map of configuration variable names and their
// corresponding string values and applies any recognised ones to c.
func (c *Config) Update(vars map[string]string) {
	if v, ok := vars["Threads"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.Threads = uint(n)
		}
	}
	if v, ok := vars["RingSize"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.RingSize = uint(n)
		}
	}
	if v, ok := vars["InstancePoolSize"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.InstancePoolSize = uint(n)
		}
	}
	if v, ok := vars["PacketizationMode"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.PacketizationMode = PacketizationMode(n)
		}
	}
	if v, ok := vars["ProxyMode"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ProxyMode = b
		}
	}
}

// WorkerCount returns the number of universal worker threads implied by
// Threads, per section 5: N = max(1, Threads-2).
func (c *Config) WorkerCount() int {
	n := int(c.Threads) - 2
	if n < 1 {
		n = 1
	}
	return n
}
