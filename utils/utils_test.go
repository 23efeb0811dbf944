package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	// sha256("abc")
	expected := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Hash([]byte("abc")); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
	if Hash([]byte("abc")) == Hash([]byte("abd")) {
		t.Errorf("Expected different digests for different payloads")
	}
	if len(Hash(nil)) != 64 {
		t.Errorf("Expected a 64 character hex digest")
	}
}

func TestSetVerbose(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)
	defer SetVerbose(GetVerbose())

	var buf bytes.Buffer
	l := newLogger()
	l.SetOutput(&buf)
	SetLogger(l)

	SetVerbose(false)
	LogDebug("hidden %d", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debug output should be suppressed when verbose is off")
	}

	SetVerbose(true)
	LogDebug("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("Debug output expected when verbose is on, got %q", buf.String())
	}

	LogError("boom %s", "x")
	if !strings.Contains(buf.String(), "boom x") {
		t.Errorf("Error output expected, got %q", buf.String())
	}
}
