// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package glvoronoi

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
)

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	sites := []r2.Point{{X: 0.5, Y: 0.5}, {X: 3, Y: 3}}
	if _, err := NewDiagram(sites, BoxSize); err != nil {
		t.Fatalf("NewDiagram(...) error = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "site outside box") {
		t.Errorf("log output = %q, want it to mention the site outside the box", buf.String())
	}
}

func TestSetLoggerNil(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Errorf("SetLogger(nil) should restore the silent logger")
	}
}
