package veneer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitTypeEnabled(_ *testing.T) {
	// Should not panic
	emitTypeEnabled(context.Background(), "User")
}

func TestEmitTemplateDefined(_ *testing.T) {
	emitTemplateDefined(context.Background(), "User", "private", "public", 3)
}

func TestEmitRenderStart(_ *testing.T) {
	emitRenderStart(context.Background(), "User", "public")
}

func TestEmitRenderComplete_Success(_ *testing.T) {
	emitRenderComplete(context.Background(), "User", "public", 4, 100*time.Microsecond, nil)
}

func TestEmitRenderComplete_Error(_ *testing.T) {
	emitRenderComplete(context.Background(), "User", "public", 0, 100*time.Microsecond, errors.New("test error"))
}

func TestEmitEncodeComplete_Success(_ *testing.T) {
	emitEncodeComplete(context.Background(), "application/json", "User", "public", 512, time.Millisecond, nil)
}

func TestEmitEncodeComplete_Error(_ *testing.T) {
	emitEncodeComplete(context.Background(), "application/json", "User", "public", 0, time.Millisecond, errors.New("test error"))
}

func TestSignalVariables(t *testing.T) {
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalTypeEnabled", SignalTypeEnabled},
		{"SignalTemplateDefined", SignalTemplateDefined},
		{"SignalRenderStart", SignalRenderStart},
		{"SignalRenderComplete", SignalRenderComplete},
		{"SignalEncodeComplete", SignalEncodeComplete},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}
