package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/imfpipe/imfpipe/logger"
)

func TestWebLoggerJsonFields(t *testing.T) {
	l := logger.NewWebLogger("test-service", "info", false, func() {})
	logOutput := bytes.NewBufferString("")
	l.SetOutput(logOutput)

	l.Info("Testing")

	var actual map[string]interface{}
	if err := json.Unmarshal(logOutput.Bytes(), &actual); err != nil {
		t.Fatal("expected JSON log output: ", err)
	}
	if actual["service"] != "test-service" {
		t.Error("expected service field test-service, got: ", actual["service"])
	}
	if actual["level"] != "info" {
		t.Error("expected level info, got: ", actual["level"])
	}
	if actual["msg"] != "Testing" {
		t.Error("expected msg Testing, got: ", actual["msg"])
	}
}

func TestWebLoggerWarnLevel(t *testing.T) {
	l := logger.NewWebLogger("test-service", "info", false, func() {})
	logOutput := bytes.NewBufferString("")
	l.SetOutput(logOutput)

	l.Warn("Testing")

	var actual map[string]interface{}
	if err := json.Unmarshal(logOutput.Bytes(), &actual); err != nil {
		t.Fatal("expected JSON log output: ", err)
	}
	if actual["level"] != "warning" {
		t.Error("expected level warning, got: ", actual["level"])
	}
}
