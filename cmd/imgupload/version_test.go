package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfoNeverEmpty(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func() string{
		"version": getVersion,
		"commit":  getCommit,
		"date":    getDate,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if fn() == "" {
				t.Errorf("%s is empty", name)
			}
		})
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"imgupload ", "commit:", "built:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestGetCommitPrefersLinkerValue(t *testing.T) {
	orig := gitCommit
	gitCommit = "abc1234"
	t.Cleanup(func() { gitCommit = orig })

	if got := getCommit(); got != "abc1234" {
		t.Errorf("getCommit() = %q, want abc1234", got)
	}
}
