package heuristics

import (
	"strings"
	"testing"
)

func TestAnalyzeUnparseable(t *testing.T) {
	for _, raw := range []string{"", "not a url", "   "} {
		r := Analyze(raw)
		if r.Score != 0 || len(r.Flags) != 0 {
			t.Errorf("expected zero result for %q, got %+v", raw, r)
		}
	}
}

func TestAnalyzeCleanURL(t *testing.T) {
	r := Analyze("https://www.google.com")
	if r.Score != 0 {
		t.Errorf("expected score 0 for clean URL, got %d (flags: %v)", r.Score, r.Flags)
	}
}

func TestNoHTTPSPenalty(t *testing.T) {
	httpScore := Analyze("http://example.com").Score
	httpsScore := Analyze("https://example.com").Score
	if httpScore <= httpsScore {
		t.Errorf("expected http score > https score, got %d vs %d", httpScore, httpsScore)
	}
}

func TestIPHostPenalty(t *testing.T) {
	r := Analyze("http://192.168.1.1/login")
	if r.Score < 20 {
		t.Errorf("expected at least the IP penalty, got %d", r.Score)
	}
	found := false
	for _, f := range r.Flags {
		if strings.Contains(f, "IP address") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected IP flag, got %v", r.Flags)
	}
}

func TestRuleTriggers(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		flagPart string
	}{
		{"at in authority", "https://user@evil.com/", "@ in authority"},
		{"shortener", "https://bit.ly/abc", "shortening"},
		{"many subdomains", "https://a.b.c.d.e.f.example.com/", "subdomains"},
		{"credential params", "https://example.com/?password=x", "credential-like"},
		{"host keyword", "https://secure-update.example.com/", "bait words"},
		{"punycode", "https://xn--pple-43d.com/", "punycode"},
		{"odd port", "https://example.com:8081/", "Non-standard port"},
		{"free tld", "https://prize.tk/", "high-abuse"},
		{"leet label", "https://paypa1.com/", "digits into"},
		{"long url", "https://example.com/" + strings.Repeat("a", 90), "long URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Analyze(tc.url)
			found := false
			for _, f := range r.Flags {
				if strings.Contains(f, tc.flagPart) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected flag containing %q, got %v", tc.flagPart, r.Flags)
			}
			if r.Score == 0 {
				t.Error("expected nonzero score")
			}
		})
	}
}

func TestPathKeywordsAdditive(t *testing.T) {
	one := Analyze("https://example.com/login").Score
	three := Analyze("https://example.com/login/verify/account").Score
	if three <= one {
		t.Errorf("expected more keywords to score higher: %d vs %d", three, one)
	}
}

func TestCompoundPhishingURL(t *testing.T) {
	r := Analyze("https://paypa1-secure.tk/login")
	if r.Score < 50 {
		t.Errorf("expected compound URL to score at least 50, got %d (flags: %v)", r.Score, r.Flags)
	}
}

func TestDeterminism(t *testing.T) {
	url := "http://user@paypa1-secure.tk:8081/login/verify?token=a&b=c"
	a := Analyze(url)
	b := Analyze(url)
	if a.Score != b.Score || len(a.Flags) != len(b.Flags) {
		t.Errorf("expected identical results, got %+v vs %+v", a, b)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	url := "https://login.secure.paypa1-verify.example.tk/account/update?session=abc123"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Analyze(url)
	}
}
