package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("verbose", "text"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOutput("debug", "json", &buf); err != nil {
		t.Fatal(err)
	}
	defer func() { log = nil }()

	WithFields(Fields{"widget_session": "abc"}).Info("mounted")
	Debugf("count=%d", 2)

	out := buf.String()
	if !strings.Contains(out, `"widget_session":"abc"`) || !strings.Contains(out, "count=2") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
