package gologger

import (
	"context"
	"testing"

	"github.com/goliatone/go-lodge-cms/internal/runtimeconfig"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProviderFromLoggingConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig().Logging
	cfg.Level = "debug"
	cfg.Focus = []string{"media.pipeline"}

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("media.pipeline")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		t.Fatal("expected logger to implement interfaces.FieldsLogger")
	}
	child := fieldsLogger.WithFields(map[string]any{"asset_id": "a1"})
	if child == nil {
		t.Fatal("expected WithFields to return logger")
	}
	child.Debug("adapter.initialised")
}

func TestNewProviderFormats(t *testing.T) {
	cases := []struct {
		name    string
		cfg     runtimeconfig.LoggingConfig
		wantErr bool
	}{
		{"json default", runtimeconfig.LoggingConfig{}, false},
		{"pretty", runtimeconfig.LoggingConfig{Format: "pretty"}, false},
		{"console provider overrides format", runtimeconfig.LoggingConfig{Provider: "console", Format: "xml"}, false},
		{"unknown format", runtimeconfig.LoggingConfig{Format: "xml"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProvider(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestQualifyModuleNames(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"media":            "cms.media",
		" media.pipeline ": "cms.media.pipeline",
		"cms.blocks":       "cms.blocks",
		"cms":              "cms",
		".seed.":           "cms.seed",
		"cmsx":             "cms.cmsx",
	}
	for input, want := range cases {
		if got := qualify(input); got != want {
			t.Fatalf("qualify(%q) = %q, want %q", input, got, want)
		}
	}

	focus := qualifyAll([]string{"media", "cms.media", " ", "pages"})
	if len(focus) != 2 || focus[0] != "cms.media" || focus[1] != "cms.pages" {
		t.Fatalf("unexpected focus list %v", focus)
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"WARNING": glog.Warn,
		" debug ": glog.Debug,
		"bogus":   "",
	}
	for input, want := range cases {
		if got := normalizeLevel(input); got != want {
			t.Fatalf("normalizeLevel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAdapterDelegatesToUnderlyingLogger(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)

	adapted.Trace("trace", "key", "value")
	adapted.Debug("debug")
	adapted.Info("info")
	adapted.Warn("warn")
	adapted.Error("error")
	adapted.Fatal("fatal")

	fields := map[string]any{"breakpoint": "md"}
	fieldsAdapted, ok := adapted.(interfaces.FieldsLogger)
	if !ok {
		t.Fatal("expected adapter to implement interfaces.FieldsLogger")
	}
	child := fieldsAdapted.WithFields(fields)
	if child == nil {
		t.Fatal("expected WithFields to return logger")
	}

	fields["breakpoint"] = "xs"
	if len(stub.fields) != 1 {
		t.Fatalf("expected fields to be recorded once, got %d", len(stub.fields))
	}
	if stub.fields[0]["breakpoint"] != "md" {
		t.Fatalf("expected fields to be cloned, got %v", stub.fields[0]["breakpoint"])
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", stub.contexts)
	}

	wantCalls := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if len(stub.calls) != len(wantCalls) {
		t.Fatalf("expected %d calls, got %d", len(wantCalls), len(stub.calls))
	}
	for i, want := range wantCalls {
		if stub.calls[i] != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, stub.calls[i])
		}
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
