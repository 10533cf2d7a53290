package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAllowlistMatching(t *testing.T) {
	allow := NewAllowlist([]string{"Example.com", ".trusted.org", "", "  news.site  "})

	if allow.Size() != 3 {
		t.Fatalf("size = %d, want 3 (blanks skipped)", allow.Size())
	}

	cases := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"EXAMPLE.COM", true},
		{"www.example.com", true},
		{"deep.sub.example.com", true},
		{"example.com.", true},
		{"trusted.org", true},
		{"news.site", true},
		{"notexample.com", false},
		{"example.com.evil.net", false},
		{"other.org", false},
	}
	for _, c := range cases {
		if got := allow.Allows(c.host); got != c.want {
			t.Errorf("Allows(%q) = %v, want %v", c.host, got, c.want)
		}
	}
}

func TestNilAllowlistDeniesEverything(t *testing.T) {
	var allow *Allowlist
	if allow.Allows("example.com") {
		t.Fatal("nil allowlist must deny")
	}
	if allow.Size() != 0 {
		t.Fatal("nil allowlist has no domains")
	}
}

func TestLoadAllowlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	if err := os.WriteFile(path, []byte("domains:\n  - example.com\n  - news.site\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	allow, err := LoadAllowlist(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if allow.Size() != 2 {
		t.Fatalf("size = %d", allow.Size())
	}
	if !allow.Allows("sub.news.site") {
		t.Fatal("loaded domains must match subdomains")
	}
}

func TestLoadAllowlistMissingFile(t *testing.T) {
	if _, err := LoadAllowlist(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
