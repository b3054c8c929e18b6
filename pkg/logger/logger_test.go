package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Info(context.Background(), "point scored", String("team", "A"), Int("teamA", 12))

	out := buf.String()
	for _, want := range []string{"point scored", "team=A", "teamA=12", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	if err := InitWriter(nil); err == nil {
		t.Error("expected an error for a nil writer")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()
	ctx := context.Background()

	Get().Debug(ctx, "hidden at info")
	if strings.Contains(buf.String(), "hidden at info") {
		t.Error("debug message written at info level")
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(ctx, "shown at debug")
	if !strings.Contains(buf.String(), "shown at debug") {
		t.Error("debug message missing at debug level")
	}

	if err := SetLevelString("ERROR"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Warn(ctx, "hidden at error")
	if strings.Contains(buf.String(), "hidden at error") {
		t.Error("warn message written at error level")
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("store").Warn(context.Background(), "write queued", String("key", "referee_match_data"))

	if out := buf.String(); !strings.Contains(out, "store.key=referee_match_data") {
		t.Errorf("output %q missing grouped field", out)
	}
}
