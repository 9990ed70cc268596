package cmd

import (
	"os"
	"testing"
)

func TestGetCliFlag(t *testing.T) {
	fnGetConfig := func(key string, out interface{}) error {
		return nil
	}
	flagName := "mock"
	mockEnvVar := flagNameToEnvVar(flagName)
	defaultValue := "myDefault"

	// The default applies when config has no value.
	got := switches.getCliFlag(flagName, defaultValue, fnGetConfig)
	if got.val != defaultValue {
		t.Fatalf("test 1 failed: expected default value %v to be applied to mock CLI flag", got.val)
	}

	// In 12 factor mode an unset env variable also falls back to the default.
	twelveFactorMode = true
	got = switches.getCliFlag(flagName, defaultValue, fnGetConfig)
	if got.val != defaultValue {
		t.Fatalf("test 2 failed: expected default value (%v) to be applied to mock CLI flag fetched via environment variable (%v)", got.val, mockEnvVar)
	}

	// A set env variable wins over the default in 12 factor mode.
	expected := "envTest"
	if err := os.Setenv(mockEnvVar, expected); err != nil {
		t.Fatalf("test 3 failed: unable to set environment variable %v", mockEnvVar)
	}
	got = switches.getCliFlag(flagName, defaultValue, fnGetConfig)
	if got.val != expected {
		t.Fatalf("test 3 failed: expected value (%v) to be applied to mock CLI flag (%v) fetched from environment variable (%v); got: %v", expected, flagName, mockEnvVar, got.val)
	}
}
