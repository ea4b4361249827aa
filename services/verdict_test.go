package services

import (
	"os"
	"path/filepath"
	"testing"

	"cyberguard/models"
)

func TestClassifyVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want models.VerdictToken
	}{
		{"FAKE NEWS", models.VerdictFake},
		{"MODERATELY FAKE", models.VerdictFake},
		{"POSSIBLY MANIPULATED", models.VerdictFake},
		{"likely false", models.VerdictFake},
		{"LEGITIMATE", models.VerdictLegitimate},
		{"AUTHENTIC", models.VerdictLegitimate},
		{"likely real", models.VerdictLegitimate},
		{"Partially accurate", models.VerdictModerate},
		{"Moderate", models.VerdictModerate},
		{"HIGH", models.VerdictUnknown},
		{"HIGH RISK", models.VerdictUnknown},
		{"", models.VerdictUnknown},
		{"   ", models.VerdictUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyVerdict(tt.in); got != tt.want {
			t.Errorf("ClassifyVerdict(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseVerdictRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no rules", "version: 1\nrules: []\n"},
		{"missing token", "version: 1\nrules:\n  - name: x\n    keywords: [a]\n"},
		{"missing keywords", "version: 1\nrules:\n  - name: x\n    token: verdict-fake\n"},
		{"blank keyword", "version: 1\nrules:\n  - name: x\n    token: verdict-fake\n    keywords: [fake, '   ']\n"},
		{"empty keyword", "version: 1\nrules:\n  - name: x\n    token: verdict-fake\n    keywords: ['']\n"},
		{"bad yaml", "rules: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVerdictRules([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseVerdictRules_LowercasesKeywords(t *testing.T) {
	rules, err := ParseVerdictRules([]byte("version: 2\nrules:\n  - name: n\n    token: verdict-fake\n    keywords: [' Bogus ']\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := rules.Classify("TOTALLY BOGUS"); got != models.VerdictFake {
		t.Errorf("Classify = %s, want verdict-fake", got)
	}
	if got := rules.Classify("fine"); got != models.VerdictUnknown {
		t.Errorf("fallback = %s, want verdict-unknown", got)
	}
}

func TestRuleStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("version: 1\nrules:\n  - name: n\n    token: verdict-fake\n    keywords: [bogus]\n")

	store, err := NewRuleStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := store.Classify("bogus"); got != models.VerdictFake {
		t.Fatalf("before reload = %s", got)
	}

	write("version: 2\nrules:\n  - name: p\n    token: verdict-legitimate\n    keywords: [bogus]\n")
	if err := store.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := store.Classify("bogus"); got != models.VerdictLegitimate {
		t.Errorf("after reload = %s", got)
	}

	write("rules: [\n")
	if err := store.Reload(); err == nil {
		t.Error("expected reload error for broken file")
	}
	if store.Rules().Version != 2 {
		t.Error("broken reload should keep previous rules")
	}
}

func TestNewRuleStore_DefaultRules(t *testing.T) {
	store, err := NewRuleStore("")
	if err != nil {
		t.Fatal(err)
	}
	if store.Rules() != DefaultVerdictRules() {
		t.Error("empty path should use the embedded rules")
	}
	if err := store.Reload(); err != nil {
		t.Errorf("Reload with no path = %v", err)
	}
}
