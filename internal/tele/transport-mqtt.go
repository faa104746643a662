package tele

import (
	"context"
	"fmt"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/helpers"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_config "github.com/MatheusdoNAm/AutoAtendimento/tele/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
)

func TopicConnect(prefix string) string   { return prefix + "/c" }
func TopicState(prefix string) string     { return prefix + "/w/1s" }
func TopicTelemetry(prefix string) string { return prefix + "/w/1t" }

// paho wants Println/Printf
type mqttLogger struct {
	log   *log2.Log
	level log2.Level
}

func (l mqttLogger) Println(v ...interface{}) { l.log.Log(l.level, "mqtt: "+fmt.Sprint(v...)) }
func (l mqttLogger) Printf(format string, v ...interface{}) {
	l.log.Logf(l.level, "mqtt: "+format, v...)
}

type transportMqtt struct {
	log     *log2.Log
	m       mqtt.Client
	mopt    *mqtt.ClientOptions
	timeout time.Duration

	topicConnect   string
	topicState     string
	topicTelemetry string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error {
	self.log = log
	if teleConfig.MqttBroker == "" {
		return errors.NotValidf("tele mqtt_broker empty")
	}
	mqttLog := log.Clone(log2.LInfo)
	if teleConfig.MqttLogDebug {
		mqttLog.SetLevel(log2.LDebug)
		mqtt.DEBUG = mqttLogger{mqttLog, log2.LDebug}
	}
	mqtt.ERROR = mqttLogger{mqttLog, log2.LError}
	mqtt.CRITICAL = mqttLogger{mqttLog, log2.LError}
	mqtt.WARN = mqttLogger{mqttLog, log2.LInfo}

	prefix := teleConfig.TopicPrefix()
	credFun := func() (string, string) {
		return prefix, teleConfig.MqttPassword
	}
	self.topicConnect = TopicConnect(prefix)
	self.topicState = TopicState(prefix)
	self.topicTelemetry = TopicTelemetry(prefix)
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, 60*time.Second)
	self.timeout = helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, DefaultNetworkTimeout)
	if self.timeout < time.Second {
		self.timeout = time.Second
	}

	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetBinaryWill(self.topicConnect, willPayload, 1, true).
		SetCleanSession(false).
		SetClientID(prefix).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepAlive).
		SetPingTimeout(self.timeout).
		SetOrderMatters(true).
		SetConnectRetryInterval(self.timeout / 2).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler).
		SetConnectRetry(true)
	if teleConfig.StorePath != "" {
		self.mopt.SetStore(mqtt.NewFileStore(teleConfig.StorePath))
	}
	self.m = mqtt.NewClient(self.mopt)
	// network errors are not fatal, client keeps retrying
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("tele mqtt connect err=%v", token.Error())
	}
	return nil
}

func (self *transportMqtt) CloseTele() {
	if self.m == nil {
		return
	}
	self.log.Infof("mqtt disconnect")
	self.m.Publish(self.topicConnect, 1, true, []byte{0x00}).WaitTimeout(self.timeout)
	self.m.Disconnect(uint(self.timeout / time.Millisecond))
}

func (self *transportMqtt) publish(topic string, retain bool, payload []byte) bool {
	token := self.m.Publish(topic, 1, retain, payload)
	if !token.WaitTimeout(self.timeout) {
		self.log.Errorf("tele mqtt publish topic=%s timeout", topic)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Errorf("tele mqtt publish topic=%s err=%v", topic, err)
		return false
	}
	return true
}

func (self *transportMqtt) SendState(payload []byte) bool {
	self.log.Debugf("transport sendstate payload=%x", payload)
	return self.publish(self.topicState, true, payload)
}

func (self *transportMqtt) SendTelemetry(payload []byte) bool {
	return self.publish(self.topicTelemetry, false, payload)
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicConnect, 1, true, []byte{0x01})
}
