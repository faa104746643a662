package tele

import (
	"context"

	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	tele_config "github.com/MatheusdoNAm/AutoAtendimento/tele/config"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - Send* return true when message is accepted for delivery, false means retry later
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error
	SendState(payload []byte) bool
	SendTelemetry(payload []byte) bool
	CloseTele()
}
