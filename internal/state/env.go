package state

import (
	"os"
	"strings"

	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "CANTEEN"

// ApplyEnv overrides config values from CANTEEN_* environment variables.
// Files in dotenv are loaded first if they exist, without replacing variables already set.
func (c *Config) ApplyEnv(log *log2.Log, dotenv ...string) error {
	for _, path := range dotenv {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Annotatef(err, "dotenv path=%s", path)
		}
		log.Debugf("config env loaded %s", path)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
			log.Debugf("config env override %s", key)
		}
	}
	str("persist.root", &c.Persist.Root)
	str("ledger.database_url", &c.Ledger.DatabaseURL)
	str("ledger.redis_addr", &c.Ledger.RedisAddr)
	str("events.kafka_topic", &c.Events.KafkaTopic)
	str("http.listen", &c.HTTP.Listen)
	str("http.jwt_secret", &c.HTTP.JwtSecret)
	str("tele.mqtt_broker", &c.Tele.MqttBroker)
	str("tele.mqtt_password", &c.Tele.MqttPassword)
	if v.IsSet("events.kafka_brokers") {
		c.Events.KafkaBrokers = strings.FieldsFunc(v.GetString("events.kafka_brokers"), func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	if v.IsSet("tele.enable") {
		c.Tele.Enabled = v.GetBool("tele.enable")
	}
	if v.IsSet("tele.terminal_id") {
		c.Tele.TerminalId = v.GetInt("tele.terminal_id")
	}
	return nil
}
