package tele

import (
	"context"
	"sync"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/helpers"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	tele_config "github.com/MatheusdoNAm/AutoAtendimento/tele/config"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
	"github.com/temoto/spq"
)

const DefaultNetworkTimeout = 30 * time.Second

// Tele contract:
// - Init() fails only with invalid config, network issues ignored
// - Transaction/Error/Report public API calls block at most for disk write
//   network may be slow or absent, messages will be delivered in background
// - Close() stops background delivery, undelivered messages stay in queue
// - Telemetry messages delivered at least once
// - State messages may be lost
type tele struct { //nolint:maligned
	config    tele_config.Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	stopCh    chan struct{}
	done      chan struct{}
	backoff   helpers.Backoff

	stateMu      sync.Mutex
	currentState tele_api.State
	stat         tele_api.Stat
}

func New() tele_api.Teler {
	return &tele{}
}
func NewWithTransporter(trans Transporter) tele_api.Teler {
	return &tele{transport: trans}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.config = teleConfig
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	self.stat.Lock()
	self.stat.Locked_Reset()
	self.stat.Unlock()
	if !self.config.Enabled {
		return nil
	}
	if self.config.PersistPath == "" {
		panic("code error must set tele.config.PersistPath")
	}

	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	willPayload := []byte{byte(tele_api.State_Disconnected)}
	if err := self.transport.Init(ctx, log, teleConfig, willPayload); err != nil {
		return errors.Annotate(err, "tele transport")
	}

	var err error
	self.q, err = spq.Open(self.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}
	self.backoff = helpers.Backoff{Min: 100 * time.Millisecond, Max: DefaultNetworkTimeout, K: 2}
	self.stopCh = make(chan struct{})
	self.done = make(chan struct{})
	go self.qworker()
	self.State(tele_api.State_Boot)
	return nil
}

func (self *tele) Close() {
	if !self.config.Enabled || self.q == nil {
		return
	}
	close(self.stopCh)
	_ = self.q.Close()
	<-self.done
	self.transport.CloseTele()
}

// denote value type in persistent queue bytes form
const (
	qTelemetry byte = 2
)

func (self *tele) qworker() {
	defer close(self.done)
	for {
		box, err := self.q.Peek()
		switch err {
		case nil:
			b := box.Bytes()
			var del bool
			del, err = self.qhandle(b)
			if err != nil {
				self.log.Errorf("tele qhandle b=%x err=%v", b, err)
			}
			if del {
				self.backoff.Reset()
				if err = self.q.Delete(box); err != nil {
					self.log.Errorf("tele qhandle Delete b=%x err=%v", b, err)
				}
			} else {
				self.backoff.Failure()
				select {
				case <-self.stopCh:
					return
				case <-time.After(self.backoff.DelayBefore()):
				}
			}

		case spq.ErrClosed:
			select {
			case <-self.stopCh: // success path
			default:
				self.log.Errorf("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			self.log.Errorf("CRITICAL tele spq err=%v", err)
			select {
			case <-self.stopCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// returns true when item is done and may be deleted from queue
func (self *tele) qhandle(b []byte) (bool, error) {
	if len(b) == 0 {
		return true, errors.Errorf("tele spq peek=empty")
	}

	switch b[0] {
	case qTelemetry:
		// validate before sending, corrupted item would block queue forever
		var tm structpb.Struct
		if err := proto.Unmarshal(b[1:], &tm); err != nil {
			return true, err
		}
		return self.transport.SendTelemetry(b[1:]), nil

	default:
		return true, errors.Errorf("unknown kind=%d", b[0])
	}
}

func (self *tele) qpushTelemetry(fields map[string]*structpb.Value) error {
	fields["terminal_id"] = numberValue(float64(self.config.TerminalId))
	fields["time"] = stringValue(time.Now().UTC().Format(time.RFC3339Nano))
	if self.config.BuildVersion != "" {
		fields["build_version"] = stringValue(self.config.BuildVersion)
	}
	self.stat.Lock()
	defer self.stat.Unlock()
	fields["stat"] = structValue(statStruct(&self.stat))
	err := self.qpushTagProto(qTelemetry, &structpb.Struct{Fields: fields})
	if err == nil {
		self.stat.Locked_Reset()
	}
	return err
}

func (self *tele) qpushTagProto(tag byte, pb proto.Message) error {
	b, err := proto.Marshal(pb)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, 1+len(b))
	buf = append(buf, tag)
	buf = append(buf, b...)
	return self.q.Push(buf)
}
