package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenLogFileCreatesDir(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "logs", "s1-p4runtime-requests.txt")

	file, err := OpenLogFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := file.WriteString("hello\n"); err != nil {
		t.Fatal(err)
	}
	file.Close()

	data, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("got %q", data)
	}
}
