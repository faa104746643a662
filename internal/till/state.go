package till

import (
	"math"
	"strconv"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
)

// Init binds till counts to persistent storage and loads last stored state.
func (self *Till) Init(root string, enabled bool, log *log2.Log) error {
	if err := self.Persist.Init("till", self, root, enabled, log); err != nil {
		return err
	}
	return self.Persist.Load()
}

// Struct is wire form of till counts, key is nominal in minor units.
func (self *Till) Struct() *structpb.Struct {
	self.mu.Lock()
	defer self.mu.Unlock()
	return groupStruct(self.group)
}

func groupStruct(g *currency.NominalGroup) *structpb.Struct {
	pb := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(g.ToMap()))}
	for n, c := range g.ToMap() {
		pb.Fields[strconv.FormatUint(uint64(n), 10)] = &structpb.Value{
			Kind: &structpb.Value_NumberValue{NumberValue: float64(c)},
		}
	}
	return pb
}

func (self *Till) MarshalBinary() ([]byte, error) {
	return proto.Marshal(self.Struct())
}

// UnmarshalBinary replaces counts. Unknown nominal or bad count rejects whole payload.
func (self *Till) UnmarshalBinary(b []byte) error {
	var pb structpb.Struct
	if err := proto.Unmarshal(b, &pb); err != nil {
		return errors.Annotate(err, "till unmarshal")
	}
	next := currency.NewNominalGroup(self.nominals)
	for key, v := range pb.Fields {
		n, err := strconv.ParseUint(key, 10, 32)
		if err != nil || !next.Valid(currency.Nominal(n)) {
			return errors.Annotatef(ErrUnrecognizedDenomination, "till unmarshal key=%s", key)
		}
		f := v.GetNumberValue()
		if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
			return errors.NotValidf("till unmarshal key=%s count=%v", key, f)
		}
		_ = next.Add(currency.Nominal(n), uint(f))
	}
	return self.Restore(next)
}

// Restore replaces all counts with g. Nominal outside till set rejects g whole.
func (self *Till) Restore(g *currency.NominalGroup) error {
	next := currency.NewNominalGroup(self.nominals)
	err := g.Iter(func(n currency.Nominal, c uint) error {
		if c == 0 {
			return nil
		}
		if !next.Valid(n) {
			return errors.Annotatef(ErrUnrecognizedDenomination, "till.restore n=%s", currency.Amount(n).Format100I())
		}
		return next.Add(n, c)
	})
	if err != nil {
		return err
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	self.group = next
	self.log.Debugf("till.restore total=%s", next.Total().Format100I())
	return nil
}
