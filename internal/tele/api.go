package tele

import (
	"context"
	"strconv"

	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
)

const logMsgDisabled = "tele disabled"

func (self *tele) Error(e error) {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}

	self.log.Debugf("tele.Error: %s", errors.ErrorStack(e))
	fields := map[string]*structpb.Value{
		"error": structValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"message": stringValue(e.Error()),
		}}),
	}
	if err := self.qpushTelemetry(fields); err != nil {
		// log.Error would loop back here
		self.log.Infof("CRITICAL qpushTelemetry telemetry_error=%v err=%v", e, err)
	}
}

// Report sends till counts. serviceTag marks report made during maintenance.
func (self *tele) Report(ctx context.Context, serviceTag bool) error {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return nil
	}

	fields := map[string]*structpb.Value{
		"at_service": {Kind: &structpb.Value_BoolValue{BoolValue: serviceTag}},
	}
	if g := state.GetGlobal(ctx); g.Till != nil {
		fields["till"] = structValue(g.Till.Struct())
		fields["till_total"] = numberValue(float64(g.Till.Total()))
	}
	err := self.qpushTelemetry(fields)
	if err != nil {
		self.log.Errorf("CRITICAL qpushTelemetry report err=%v", err)
	}
	return err
}

func (self *tele) State(s tele_api.State) {
	if !self.config.Enabled {
		return
	}
	self.stateMu.Lock()
	defer self.stateMu.Unlock()
	if self.currentState != s {
		self.currentState = s
		self.transport.SendState([]byte{byte(s)})
	}
}

func (self *tele) StatModify(fun func(s *tele_api.Stat)) {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}

	self.stat.Lock()
	fun(&self.stat)
	self.stat.Unlock()
}

func (self *tele) Transaction(tx *tele_api.Transaction) {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return
	}
	lines := make([]*structpb.Value, 0, len(tx.Lines))
	for _, l := range tx.Lines {
		lines = append(lines, structValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"code":  numberValue(float64(l.Code)),
			"qty":   numberValue(float64(l.Qty)),
			"price": numberValue(float64(l.Price)),
		}}))
	}
	fields := map[string]*structpb.Value{
		"transaction": structValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"number":   numberValue(float64(tx.Number)),
			"method":   stringValue(tx.Method),
			"total":    numberValue(float64(tx.Total)),
			"tendered": numberValue(float64(tx.Tendered)),
			"change":   numberValue(float64(tx.Change)),
			"lines":    {Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: lines}}},
		}}),
	}
	if err := self.qpushTelemetry(fields); err != nil {
		self.log.Errorf("CRITICAL transaction=%#v err=%v", tx, err)
	}
}

func numberValue(f float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: f}}
}
func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}
func structValue(s *structpb.Struct) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}
}

// Caller must hold stat lock.
func statStruct(s *tele_api.Stat) *structpb.Struct {
	rejected := make(map[string]*structpb.Value, len(s.CashRejected))
	for n, c := range s.CashRejected {
		rejected[strconv.FormatUint(uint64(n), 10)] = numberValue(float64(c))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"orders":          numberValue(float64(s.Orders)),
		"change_failed":   numberValue(float64(s.ChangeFailed)),
		"need_more_money": numberValue(float64(s.NeedMoreMoney)),
		"cash_rejected":   structValue(&structpb.Struct{Fields: rejected}),
	}}
}
