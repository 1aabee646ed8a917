package homograph

import (
	"strings"
	"testing"
)

func TestDetectCleanHost(t *testing.T) {
	r := Detect("https://www.google.com")
	if r.IsHomograph {
		t.Errorf("expected clean host, got %+v", r)
	}
}

func TestDetectConfusables(t *testing.T) {
	// Cyrillic а and о standing in for Latin letters.
	r := DetectHost("pаypаl.com")
	if !r.IsHomograph {
		t.Fatalf("expected homograph detection, got %+v", r)
	}
	foundConfusable := false
	foundMixed := false
	for _, d := range r.Details {
		if strings.Contains(d, "confusable") {
			foundConfusable = true
		}
		if strings.Contains(d, "mixes Latin") {
			foundMixed = true
		}
	}
	if !foundConfusable {
		t.Errorf("expected confusable detail, got %v", r.Details)
	}
	if !foundMixed {
		t.Errorf("expected mixed-script detail, got %v", r.Details)
	}
}

func TestDetectPunycode(t *testing.T) {
	r := DetectHost("xn--pple-43d.com")
	if !r.IsHomograph {
		t.Fatalf("expected punycode host to be flagged, got %+v", r)
	}
}

func TestPureCyrillicNotMixed(t *testing.T) {
	if _, mixed := mixedScriptLabel("пример"); mixed {
		t.Error("expected pure Cyrillic label not to count as mixed script")
	}
}

func TestDetectFullwidth(t *testing.T) {
	r := DetectHost("ｇoogle.com")
	if !r.IsHomograph {
		t.Errorf("expected fullwidth character to be flagged, got %+v", r)
	}
}

func TestDetectUnparseable(t *testing.T) {
	for _, raw := range []string{"", "not a url", "://x"} {
		if r := Detect(raw); r.IsHomograph {
			t.Errorf("expected no detection for %q, got %+v", raw, r)
		}
	}
}

func TestDetectNeverPanics(t *testing.T) {
	inputs := []string{
		"https://￿￾.com",
		"https://" + string(rune(0x10FFFF)) + ".com",
		"https://" + strings.Repeat("҉", 100) + ".com",
	}
	for _, raw := range inputs {
		_ = Detect(raw)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("pаypаl")
	if got != "paypal" {
		t.Errorf("expected Cyrillic а mapped to Latin a, got %q", got)
	}
	if Normalize("plain") != "plain" {
		t.Error("expected ASCII input unchanged")
	}
}

func TestHasConfusables(t *testing.T) {
	if !HasConfusables("сhase") {
		t.Error("expected Cyrillic с to be detected")
	}
	if HasConfusables("chase") {
		t.Error("expected pure ASCII to pass")
	}
}
