/*
DESCRIPTION
  config_test.go contains testing for functionality found in config.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import "testing"

func TestValidateDefaults(t *testing.T) {
	var c Config
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Threads != 1 {
		t.Errorf("Threads = %d, want 1", c.Threads)
	}
	if c.RingSize != DefaultRingSize {
		t.Errorf("RingSize = %d, want %d", c.RingSize, DefaultRingSize)
	}
	if c.InstancePoolSize != DefaultInstancePoolSize {
		t.Errorf("InstancePoolSize = %d, want %d", c.InstancePoolSize, DefaultInstancePoolSize)
	}
}

func TestValidatePreservesSetFields(t *testing.T) {
	c := Config{Threads: 6, RingSize: 40, InstancePoolSize: 8}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Threads != 6 || c.RingSize != 40 || c.InstancePoolSize != 8 {
		t.Errorf("Validate overwrote explicitly set fields: got %+v", c)
	}
}

func TestUpdate(t *testing.T) {
	var c Config
	c.Update(map[string]string{
		"Threads":           "8",
		"RingSize":          "30",
		"InstancePoolSize":  "5",
		"PacketizationMode": "1",
		"ProxyMode":         "true",
	})
	if c.Threads != 8 {
		t.Errorf("Threads = %d, want 8", c.Threads)
	}
	if c.RingSize != 30 {
		t.Errorf("RingSize = %d, want 30", c.RingSize)
	}
	if c.InstancePoolSize != 5 {
		t.Errorf("InstancePoolSize = %d, want 5", c.InstancePoolSize)
	}
	if c.PacketizationMode != PacketizationPacket {
		t.Errorf("PacketizationMode = %v, want PacketizationPacket", c.PacketizationMode)
	}
	if !c.ProxyMode {
		t.Errorf("ProxyMode = false, want true")
	}
}

func TestUpdateIgnoresUnrecognizedAndMalformed(t *testing.T) {
	c := Config{Threads: 3}
	c.Update(map[string]string{
		"Threads":   "not-a-number",
		"Something": "else",
	})
	if c.Threads != 3 {
		t.Errorf("Threads = %d, want unchanged 3 after malformed update", c.Threads)
	}
}

func TestWorkerCount(t *testing.T) {
	cases := []struct {
		threads uint
		want    int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{10, 8},
	}
	for _, c := range cases {
		cfg := Config{Threads: c.threads}
		if got := cfg.WorkerCount(); got != c.want {
			t.Errorf("WorkerCount() with Threads=%d = %d, want %d", c.threads, got, c.want)
		}
	}
}
