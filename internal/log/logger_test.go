// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestConfigureAndComponentLogging(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "testsvc"})

	logger := WithComponent("config")
	logger.Info().Str(FieldKey, "IVADO_COMMAND").Msg("override")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[FieldComponent] != "config" {
		t.Errorf("component = %v, want config", entry[FieldComponent])
	}
	if entry["service"] != "testsvc" {
		t.Errorf("service = %v, want testsvc", entry["service"])
	}
	if entry[FieldKey] != "IVADO_COMMAND" {
		t.Errorf("key = %v", entry[FieldKey])
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext = %q, want req-123", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context must yield empty id, got %q", got)
	}
}
