package tele

import (
	"context"

	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_config "github.com/MatheusdoNAm/AutoAtendimento/tele/config"
)

// Teler interface Telemetry client, canteen terminal side.
// Not for external public usage.
type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	State(State)
	Error(error)
	StatModify(func(*Stat))
	Report(ctx context.Context, serviceTag bool) error
	Transaction(*Transaction)
}

type stub struct{}

func (stub) Init(context.Context, *log2.Log, tele_config.Config) error {
	return nil
}
func (stub) Close()                                            {}
func (stub) State(State)                                       {}
func (stub) Error(error)                                       {}
func (stub) StatModify(func(*Stat))                            {}
func (stub) Report(ctx context.Context, serviceTag bool) error { return nil }
func (stub) Transaction(*Transaction)                          {}

func NewStub() Teler { return stub{} }
