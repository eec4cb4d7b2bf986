package main

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd(zerolog.Nop())

	if root.Use != "carpenter-bee" {
		t.Errorf("expected use 'carpenter-bee', got %q", root.Use)
	}

	crawl, _, err := root.Find([]string{"crawl"})
	if err != nil || crawl == nil || crawl.Use != "crawl [url]" {
		t.Fatalf("expected crawl subcommand, got %v (err %v)", crawl, err)
	}
}

func TestNewCrawlCmdFlags(t *testing.T) {
	cmd := newCrawlCmd(zerolog.Nop())

	tests := []struct {
		flag      string
		shorthand string
		defValue  string
	}{
		{flag: "depth", shorthand: "d", defValue: "3"},
		{flag: "concurrency", shorthand: "c", defValue: "5"},
		{flag: "delay", shorthand: "", defValue: "1"},
		{flag: "retries", shorthand: "", defValue: "3"},
		{flag: "backoff-factor", shorthand: "", defValue: "1.5"},
		{flag: "scope", shorthand: "", defValue: "registrable-domain"},
		{flag: "robots", shorthand: "", defValue: "true"},
		{flag: "output-dir", shorthand: "o", defValue: "output"},
		{flag: "format", shorthand: "f", defValue: "txt"},
		{flag: "config", shorthand: "", defValue: ""},
		{flag: "output-file", shorthand: "", defValue: ""},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.flag)
		if flag == nil {
			t.Errorf("expected flag %q", tt.flag)
			continue
		}
		if flag.Shorthand != tt.shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", tt.flag, tt.shorthand, flag.Shorthand)
		}
		if flag.DefValue != tt.defValue {
			t.Errorf("flag %q: expected default %q, got %q", tt.flag, tt.defValue, flag.DefValue)
		}
	}
}

func TestCrawlCmdRequiresSeed(t *testing.T) {
	cmd := newCrawlCmd(zerolog.Nop())
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no seed URL or profile is given")
	}
}
