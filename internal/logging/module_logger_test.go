package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "cms.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerAnnotatesModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, blocksModule)

	if len(provider.requested) != 1 || provider.requested[0] != blocksModule {
		t.Fatalf("expected module %s, got %v", blocksModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != blocksModule {
		t.Fatalf("expected module field %s, got %v", blocksModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRoot(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "  ")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected root module, got %v", provider.requested)
	}
}

func TestNamedModuleLoggers(t *testing.T) {
	cases := map[string]func(interfaces.LoggerProvider) interfaces.Logger{
		pagesModule:    PagesLogger,
		mediaModule:    MediaLogger,
		pipelineModule: PipelineLogger,
		seedModule:     SeedLogger,
	}
	for module, factory := range cases {
		provider := &stubProvider{logger: &recordingLogger{}}
		_ = factory(provider)
		if len(provider.requested) != 1 || provider.requested[0] != module {
			t.Fatalf("expected %s, got %v", module, provider.requested)
		}
	}
}

func TestWithBreakpointSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithBreakpoint(rec, "asset-1", "")
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	if _, ok := rec.fields[0][fieldBreakpoint]; ok {
		t.Fatalf("empty breakpoint should not be attached: %v", rec.fields[0])
	}
	if rec.fields[0][fieldAssetID] != "asset-1" {
		t.Fatalf("expected asset id field, got %v", rec.fields[0])
	}
}

func TestFromContextMergesContextFields(t *testing.T) {
	rec := &recordingLogger{}
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "abc"})
	ctx = ContextWithFields(ctx, map[string]any{"page": "home"})

	_ = FromContext(ctx, rec)

	if len(rec.contexts) != 1 || rec.contexts[0] != ctx {
		t.Fatalf("expected context to be bound")
	}
	if len(rec.fields) != 1 || rec.fields[0]["request_id"] != "abc" || rec.fields[0]["page"] != "home" {
		t.Fatalf("expected merged context fields, got %v", rec.fields)
	}
}

func TestContextFieldsReturnsCopy(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"k": "v"})
	fields := ContextFields(ctx)
	fields["k"] = "changed"
	if ContextFields(ctx)["k"] != "v" {
		t.Fatalf("context fields must not be mutated through the returned map")
	}
}
