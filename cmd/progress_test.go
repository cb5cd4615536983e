package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgressPrinterLifecycle(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out, 0, "hosts")
	if printer.total != 1 {
		t.Fatalf("expected total to be clamped to 1, got %d", printer.total)
	}

	printer.Start()
	printer.Increment(true, 0.5)
	printer.Increment(false, 1.0)
	time.Sleep(350 * time.Millisecond) // allow ticker to tick at least once
	printer.Stop()
	printer.Stop()

	output := out.String()
	if !strings.Contains(output, "Progress: 2/2") {
		t.Fatalf("expected summary progress, got %q", output)
	}
	if !strings.Contains(output, "Valid:1") || !strings.Contains(output, "Invalid:1") {
		t.Fatalf("expected Valid/Invalid counts in output, got %q", output)
	}
	if !strings.Contains(output, "Avg:0.75s") {
		t.Fatalf("expected average duration in output, got %q", output)
	}
}
