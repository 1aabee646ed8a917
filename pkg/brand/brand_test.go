package brand

import "testing"

func newTestDetector() *Detector {
	return NewDetector("")
}

func TestOfficialDomainWhitelisted(t *testing.T) {
	d := newTestDetector()
	cases := []string{"paypal.com", "www.paypal.com", "checkout.paypal.com", "google.com"}
	for _, host := range cases {
		t.Run(host, func(t *testing.T) {
			m := d.Detect(host)
			if m.MatchType != MatchExact {
				t.Errorf("expected EXACT for %s, got %q", host, m.MatchType)
			}
			if m.Score != 0 {
				t.Errorf("expected score 0 for official domain, got %d", m.Score)
			}
		})
	}
}

func TestTyposquatDetection(t *testing.T) {
	d := newTestDetector()
	cases := []struct {
		host     string
		brand    string
		distance int
	}{
		{"paypa1.com", "paypal", 1},
		{"paypa1-secure.tk", "paypal", 1},
		{"gooogle.com", "google", 1},
		{"amaz0n.net", "amazon", 1},
		{"micr0s0ft.com", "microsoft", 2},
	}
	for _, tc := range cases {
		t.Run(tc.host, func(t *testing.T) {
			m := d.Detect(tc.host)
			if m.MatchType != MatchTyposquat {
				t.Fatalf("expected TYPOSQUAT for %s, got %q", tc.host, m.MatchType)
			}
			if m.Brand != tc.brand {
				t.Errorf("expected brand %s, got %s", tc.brand, m.Brand)
			}
			if m.EditDistance != tc.distance {
				t.Errorf("expected distance %d, got %d", tc.distance, m.EditDistance)
			}
			if m.Score < 60 {
				t.Errorf("expected high score, got %d", m.Score)
			}
		})
	}
}

func TestWrongSuffixScoresHighest(t *testing.T) {
	d := newTestDetector()
	m := d.Detect("paypal.tk")
	if m.MatchType != MatchTyposquat || m.EditDistance != 0 {
		t.Fatalf("expected distance-0 typosquat, got %+v", m)
	}
	if m.Score <= scoreDistanceOne {
		t.Errorf("expected wrong-suffix score above distance-1 score, got %d", m.Score)
	}
}

func TestSubdomainAbuse(t *testing.T) {
	d := newTestDetector()
	m := d.Detect("paypal.account-review.net")
	if m.MatchType != MatchSubdomainAbuse {
		t.Fatalf("expected SUBDOMAIN_ABUSE, got %+v", m)
	}
	if m.Brand != "paypal" {
		t.Errorf("expected brand paypal, got %s", m.Brand)
	}
}

func TestNoMatch(t *testing.T) {
	d := newTestDetector()
	for _, host := range []string{"example.com", "wikipedia.org", "192.168.1.1", "[::1]", ""} {
		m := d.Detect(host)
		if m.MatchType != MatchNone || m.Score != 0 {
			t.Errorf("expected no match for %q, got %+v", host, m)
		}
	}
}

func TestMixedScriptInputDoesNotCrash(t *testing.T) {
	d := newTestDetector()
	// Cyrillic lookalike characters must be tolerated, not crash.
	_ = d.Detect("gооgle.com")
	_ = d.Detect("аррle.com")
	_ = d.Detect("пример.рф")
	_ = d.Detect("xn--ggle-0qaa.com")
}

func TestDeterminism(t *testing.T) {
	d := newTestDetector()
	for i := 0; i < 3; i++ {
		a := d.Detect("paypa1-secure.tk")
		b := d.Detect("paypa1-secure.tk")
		if a != b {
			t.Fatalf("expected identical results, got %+v vs %+v", a, b)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"paypal", "paypal", 0},
		{"paypa1", "paypal", 1},
		{"gooogle", "google", 1},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q,%q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"paypa1-secure.tk", "paypa1-secure.tk"},
	}
	for _, tc := range cases {
		if got := RegistrableDomain(tc.host); got != tc.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestDetectURL(t *testing.T) {
	d := newTestDetector()
	m := d.DetectURL("https://paypa1-secure.tk/login")
	if m.MatchType != MatchTyposquat {
		t.Errorf("expected TYPOSQUAT from full URL, got %+v", m)
	}
	if m2 := d.DetectURL("not a url"); m2.MatchType != MatchNone {
		t.Errorf("expected no match for unparseable input, got %+v", m2)
	}
}
