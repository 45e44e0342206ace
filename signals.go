package veneer

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for template and render events.
var (
	SignalTypeEnabled     = capitan.NewSignal("veneer.type.enabled", "Type enabled for templating")
	SignalTemplateDefined = capitan.NewSignal("veneer.template.defined", "Template registered")
	SignalRenderStart     = capitan.NewSignal("veneer.render.start", "Render operation beginning")
	SignalRenderComplete  = capitan.NewSignal("veneer.render.complete", "Render operation finished")
	SignalEncodeComplete  = capitan.NewSignal("veneer.encode.complete", "Rendered tree marshaled")
)

// Keys for typed event data.
var (
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyTemplate    = capitan.NewStringKey("template")
	KeyParent      = capitan.NewStringKey("parent")
	KeyContentType = capitan.NewStringKey("content_type")
	KeyEntryCount  = capitan.NewIntKey("entry_count")
	KeySize        = capitan.NewIntKey("size")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// emitTypeEnabled emits an event when a type is enabled.
func emitTypeEnabled(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalTypeEnabled,
		KeyTypeName.Field(typeName),
	)
}

// emitTemplateDefined emits an event when a template is registered.
// ops counts the template's own operations, not its effective entries.
func emitTemplateDefined(ctx context.Context, typeName, template, parent string, ops int) {
	capitan.Emit(ctx, SignalTemplateDefined,
		KeyTypeName.Field(typeName),
		KeyTemplate.Field(template),
		KeyParent.Field(parent),
		KeyEntryCount.Field(ops),
	)
}

// emitRenderStart emits an event when a top-level render begins.
func emitRenderStart(ctx context.Context, typeName, template string) {
	capitan.Emit(ctx, SignalRenderStart,
		KeyTypeName.Field(typeName),
		KeyTemplate.Field(template),
	)
}

// emitRenderComplete emits an event when a top-level render finishes.
func emitRenderComplete(ctx context.Context, typeName, template string, keys int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyTemplate.Field(template),
		KeyEntryCount.Field(keys),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalRenderComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalRenderComplete, fields...)
	}
}

// emitEncodeComplete emits an event when a rendered tree has been marshaled.
func emitEncodeComplete(ctx context.Context, contentType, typeName, template string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyTemplate.Field(template),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}
