// Separate package is workaround to import cycles.
package tele_config

import "strconv"

type Config struct { //nolint:maligned
	Enabled           bool   `hcl:"enable"`
	TerminalId        int    `hcl:"terminal_id"`
	LogDebug          bool   `hcl:"log_debug"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	MqttBroker        string `hcl:"mqtt_broker"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
	MqttPassword      string `hcl:"mqtt_password"` // secret
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	StorePath         string `hcl:"store_path"`

	PersistPath  string `hcl:"-"`
	BuildVersion string `hcl:"-"`
}

// TopicPrefix doubles as MQTT client id.
func (c *Config) TopicPrefix() string { return "canteen" + strconv.Itoa(c.TerminalId) }
