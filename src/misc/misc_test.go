package misc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestCheckRequiredFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("input", "i", "", "input file")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		t.Fatal(err)
	}
	if err := CheckRequiredFlags(cmd.Flags()); err == nil {
		t.Fatal("missing required flag should be reported")
	}
	if err := cmd.Flags().Set("input", "x.json"); err != nil {
		t.Fatal(err)
	}
	if err := CheckRequiredFlags(cmd.Flags()); err != nil {
		t.Fatal(err)
	}
}

func TestFileChecks(t *testing.T) {
	dir := t.TempDir()
	newDir := filepath.Join(dir, "a", "b")
	if err := CheckDir(newDir, false); err == nil {
		t.Fatal("missing directory should be reported")
	}
	if err := CheckDir(newDir, true); err != nil {
		t.Fatal(err)
	}
	if err := CheckDir("", true); err == nil {
		t.Fatal("empty directory name should be reported")
	}
	logFile := filepath.Join(dir, "logs", "run.log")
	fh, err := StartLogging(logFile)
	if err != nil {
		t.Fatal(err)
	}
	fh.Close()
	if err := CheckFile(logFile); err != nil {
		t.Fatal(err)
	}
	if err := CheckFile(filepath.Join(dir, "nope")); err == nil {
		t.Fatal("missing file should be reported")
	}
	if _, err := os.Stat(logFile); err != nil {
		t.Fatal(err)
	}
}
