// Decode telemetry payloads captured from the broker, e.g. with mosquitto_sub -F %x.
package tele_cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/subcmd"
	"github.com/MatheusdoNAm/AutoAtendimento/helpers/cli"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	"github.com/c-bata/go-prompt"
	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
)

const modName = "tele"

var Mod = subcmd.Mod{Name: modName, Usage: "decode hex telemetry from stdin", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.Log.Debugf("tele decoder running, terminal topic prefix=%s", config.Tele.TopicPrefix())
	cli.MainLoop(modName, newExecutor(os.Stdout), func(prompt.Document) []prompt.Suggest { return nil }, nil)
	return nil
}

func newExecutor(out io.Writer) func(string) {
	return func(line string) {
		if line == "" {
			return
		}
		s, err := decode(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		fmt.Fprintln(out, s)
	}
}

// decode reads single state byte or telemetry Struct.
func decode(line string) (string, error) {
	// mosquitto_sub wrongly strips leading zero in hex format
	if len(line)%2 == 1 {
		line = "0" + line
	}
	b, err := hex.DecodeString(line)
	if err != nil {
		return "", errors.Annotate(err, "hex decode")
	}
	if len(b) == 1 {
		return "state=" + tele_api.State(b[0]).String(), nil
	}
	var tm structpb.Struct
	if err := proto.Unmarshal(b, &tm); err != nil {
		return "", errors.Annotate(err, "proto unmarshal")
	}
	m := jsonpb.Marshaler{Indent: "  "}
	return m.MarshalToString(&tm)
}
