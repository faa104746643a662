package catalog

import (
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/currency"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
)

const DateLayout = "2006-01-02"

func (self *Catalog) Init(root string, enabled bool, log *log2.Log) error {
	if err := self.Persist.Init("catalog", self, root, enabled, log); err != nil {
		return err
	}
	return self.Persist.Load()
}

func numberValue(f float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: f}}
}
func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func (self *Catalog) MarshalBinary() ([]byte, error) {
	list := self.List()
	values := make([]*structpb.Value, 0, len(list))
	for _, item := range list {
		fields := map[string]*structpb.Value{
			"code":  numberValue(float64(item.Code)),
			"name":  stringValue(item.Name),
			"kind":  stringValue(item.Kind),
			"price": numberValue(float64(item.Price)),
			"stock": numberValue(float64(item.Stock)),
		}
		if item.ValidUntil != nil {
			fields["valid_until"] = stringValue(item.ValidUntil.Format(DateLayout))
		}
		values = append(values, &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{Fields: fields}}})
	}
	pb := &structpb.Struct{Fields: map[string]*structpb.Value{
		"items": {Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}}},
	}}
	return proto.Marshal(pb)
}

func (self *Catalog) UnmarshalBinary(b []byte) error {
	var pb structpb.Struct
	if err := proto.Unmarshal(b, &pb); err != nil {
		return errors.Annotate(err, "catalog unmarshal")
	}
	items := make(map[int]*Item)
	for _, v := range pb.Fields["items"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		item := &Item{
			Product: Product{
				Code:  int(f["code"].GetNumberValue()),
				Name:  f["name"].GetStringValue(),
				Kind:  f["kind"].GetStringValue(),
				Price: currency.Amount(f["price"].GetNumberValue()),
			},
			Stock: int(f["stock"].GetNumberValue()),
		}
		if s := f["valid_until"].GetStringValue(); s != "" {
			t, err := time.Parse(DateLayout, s)
			if err != nil {
				return errors.Annotatef(err, "catalog unmarshal code=%d", item.Code)
			}
			item.ValidUntil = &t
		}
		if err := self.validate.Struct(item.Product); err != nil {
			return errors.NewNotValid(err, "catalog unmarshal")
		}
		items[item.Code] = item
	}
	self.mu.Lock()
	self.items = items
	self.mu.Unlock()
	return nil
}
