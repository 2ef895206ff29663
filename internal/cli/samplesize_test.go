package cli

import (
	"strings"
	"testing"
)

func TestSampleSize_Defaults(t *testing.T) {
	out, err := execute(t, "samplesize",
		"--confidence", "95", "--power", "80", "--mde", "5", "--baseline", "5",
		"--daily-traffic", "1000", "--current", "0")
	if err != nil {
		t.Fatalf("samplesize failed: %v\n%s", err, out)
	}

	for _, want := range []string{"122161 per variant", "123 days", "consider increasing traffic"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Planned:") {
		t.Errorf("no planned sample size expected without --current, got:\n%s", out)
	}
}

func TestSampleSize_CurrentBelowRecommendation(t *testing.T) {
	out, err := execute(t, "samplesize",
		"--confidence", "95", "--power", "80", "--mde", "10", "--baseline", "5",
		"--daily-traffic", "1000", "--current", "1000")
	if err != nil {
		t.Fatalf("samplesize failed: %v\n%s", err, out)
	}

	for _, want := range []string{"31244 per variant", "Planned:           1000", "Increase sample size to at least 31244"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSampleSize_InvalidInput(t *testing.T) {
	_, err := execute(t, "samplesize",
		"--confidence", "95", "--power", "80", "--mde", "0", "--baseline", "5",
		"--daily-traffic", "1000", "--current", "0")
	if err == nil {
		t.Fatal("expected error for zero minimum detectable effect")
	}
}
