//go:build rp2040 || rp2350

package platform

import (
	"context"
	"io"

	"github.com/jangala-dev/nodecore/gateway"
	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// uartLink adapts a *uartx.UART to io.ReadWriteCloser; the UART itself has
// no notion of closing, so Close is a no-op, matching the teacher's own
// rp2UART wrapper (services/hal/internal/platform/factories_rp2xxx.go)
// which never exposes Close either.
type uartLink struct{ u *uartx.UART }

func (l *uartLink) Read(p []byte) (int, error)  { return l.u.Read(p) }
func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }
func (l *uartLink) Close() error                { return nil }

// DialGatewayUART opens UART0 at cfg's baud rate and wraps it as an
// io.ReadWriteCloser. Wired as gateway.UARTDial at boot (see cmd/gateway),
// the same injection point as the teacher's bridge.UARTDial.
func DialGatewayUART(ctx context.Context, cfg gateway.UARTConfig) (io.ReadWriteCloser, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{}); err != nil {
		return nil, err
	}
	if cfg.Baud > 0 {
		u.SetBaudRate(uint32(cfg.Baud))
	}
	return &uartLink{u: u}, nil
}
