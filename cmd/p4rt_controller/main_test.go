package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, name string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fileName, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func testFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("p4rt_controller", flag.ContinueOnError)
	fs.String("p4info", "./build/advanced_tunnel.p4.p4info.txt", "p4info proto in text format from p4c")
	fs.String("bmv2-json", "./build/advanced_tunnel.json", "BMv2 JSON file from p4c")
	return fs
}

func TestValidateArgs(t *testing.T) {
	p4info := touch(t, "advanced_tunnel.p4.p4info.txt")
	bmv2 := touch(t, "advanced_tunnel.json")
	missing := filepath.Join(t.TempDir(), "nope")

	tests := []struct {
		name     string
		p4info   string
		bmv2     string
		ok       bool
		contains string
	}{
		{"both missing", missing, missing, false, "p4info file not found: " + missing},
		{"p4info missing", missing, bmv2, false, "p4info file not found: " + missing},
		{"bmv2 missing", p4info, missing, false, "BMv2 JSON file not found: " + missing},
		{"both present", p4info, bmv2, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok := validateArgs(testFlagSet(), &out, tt.p4info, tt.bmv2)
			if ok != tt.ok {
				t.Fatalf("validateArgs = %v, want %v", ok, tt.ok)
			}
			if tt.ok {
				if out.Len() != 0 {
					t.Errorf("unexpected output %q", out.String())
				}
				return
			}
			s := out.String()
			if !strings.Contains(s, tt.contains) || !strings.Contains(s, "Have you run 'make'?") {
				t.Errorf("output %q does not mention %q", s, tt.contains)
			}
			if !strings.Contains(s, "-bmv2-json") {
				t.Errorf("usage missing from output %q", s)
			}
		})
	}
}

func TestRunMissingFilesExitsOne(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	var out bytes.Buffer
	if code := run(missing, missing, "", &out); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if !strings.Contains(out.String(), missing) {
		t.Errorf("output %q does not name the missing file", out.String())
	}
}
