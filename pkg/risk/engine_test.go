package risk

import (
	"strings"
	"testing"
)

func TestAnalyzeNeverPanicsAndBounds(t *testing.T) {
	e := NewEngine()
	inputs := []string{
		"",
		"   ",
		"not a url",
		"https://www.google.com",
		"http://192.168.1.1/login",
		"https://paypa1-secure.tk/login",
		"http://\x00\x01.com",
		"https://" + strings.Repeat("a", 5000) + ".com",
		"https://пример.рф/путь",
		"ftp://[::1]/files",
		strings.Repeat("🎣", 500),
	}
	for _, url := range inputs {
		a := e.Analyze(url)
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("%q: score out of [0,100]: %d", url, a.Score)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Errorf("%q: confidence out of [0,1]: %f", url, a.Confidence)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := NewEngine()
	url := "http://user@paypa1-secure.tk:8081/login/verify?token=a"
	a := e.Analyze(url)
	b := e.Analyze(url)
	if a.Score != b.Score || a.Verdict != b.Verdict || a.Confidence != b.Confidence {
		t.Errorf("expected identical assessments, got %+v vs %+v", a, b)
	}
}

func TestAnalyzeEmptyIsUnknown(t *testing.T) {
	e := NewEngine()
	a := e.Analyze("")
	if a.Verdict != VerdictUnknown || a.Score != 0 {
		t.Errorf("expected UNKNOWN/0 for empty input, got %+v", a)
	}
}

func TestHTTPSReducesScore(t *testing.T) {
	e := NewEngine()
	httpScore := e.Analyze("http://example.com").Score
	httpsScore := e.Analyze("https://example.com").Score
	if httpScore <= httpsScore {
		t.Errorf("expected http score > https score, got %d vs %d", httpScore, httpsScore)
	}
}

func TestIPHostScoresAndFlags(t *testing.T) {
	e := NewEngine()
	a := e.Analyze("http://192.168.1.1/login")
	if a.Score < 15 {
		t.Errorf("expected score >= 15 for IP host, got %d", a.Score)
	}
	found := false
	for _, f := range a.Flags {
		if strings.Contains(f, "IP address") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected IP flag, got %v", a.Flags)
	}
}

func TestTyposquatOnFreeTLDIsMalicious(t *testing.T) {
	e := NewEngine()
	a := e.Analyze("https://paypa1-secure.tk/login")
	if a.Verdict != VerdictMalicious {
		t.Errorf("expected MALICIOUS, got %s (score %d, breakdown %+v)",
			a.Verdict, a.Score, a.Breakdown)
	}
}

func TestGoogleIsSafe(t *testing.T) {
	e := NewEngine()
	a := e.Analyze("https://www.google.com")
	if a.Verdict != VerdictSafe {
		t.Errorf("expected SAFE, got %s (score %d)", a.Verdict, a.Score)
	}
	if a.Score > 30 {
		t.Errorf("expected score <= 30, got %d", a.Score)
	}
}

func TestHomographFlagged(t *testing.T) {
	e := NewEngine()
	a := e.Analyze("https://pаypаl.com/login") // Cyrillic а
	found := false
	for _, f := range a.Flags {
		if strings.Contains(f, "homograph") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected homograph flag, got %v", a.Flags)
	}
	if a.Verdict == VerdictSafe {
		t.Errorf("expected elevated verdict for homograph host, got %s (score %d)", a.Verdict, a.Score)
	}
}

func TestExplainReturnsContributions(t *testing.T) {
	e := NewEngine()
	a, top := e.Explain("http://192.168.1.1/login")
	if a.Verdict == VerdictUnknown {
		t.Fatal("expected a scored assessment")
	}
	if len(top) == 0 {
		t.Fatal("expected feature contributions")
	}
}

func TestAnalyzeConcurrent(t *testing.T) {
	e := NewEngine()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_ = e.Analyze("https://login.paypa1-secure.tk/verify")
				_ = e.Analyze("https://www.google.com")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func BenchmarkAnalyze(b *testing.B) {
	e := NewEngine()
	url := "https://login.secure.paypa1-verify.example.tk/account/update?session=abc123"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Analyze(url)
	}
}
