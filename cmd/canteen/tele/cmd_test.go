package tele_cli

import (
	"bytes"
	"encoding/hex"
	"testing"

	tele_api "github.com/MatheusdoNAm/AutoAtendimento/tele"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	s, err := decode("2")
	require.NoError(t, err)
	assert.Equal(t, "state="+tele_api.State_Nominal.String(), s)

	tm := &structpb.Struct{Fields: map[string]*structpb.Value{
		"terminal_id": {Kind: &structpb.Value_NumberValue{NumberValue: 7}},
	}}
	b, err := proto.Marshal(tm)
	require.NoError(t, err)
	s, err = decode(hex.EncodeToString(b))
	require.NoError(t, err)
	assert.Contains(t, s, `"terminal_id": 7`)

	_, err = decode("zz")
	assert.Error(t, err)
}

func TestExecutor(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	exec := newExecutor(&out)
	exec("")
	exec("06")
	exec("0g")
	assert.Contains(t, out.String(), "state="+tele_api.State_Lock.String())
	assert.Contains(t, out.String(), "error: hex decode")
}
