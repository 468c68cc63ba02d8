package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/sequence"
)

func TestRunVersionAndHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("--version exit = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "secretcode dev\n") {
		t.Errorf("version output = %q", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{"-h"}, &stdout, &stderr); code != 0 {
		t.Fatalf("-h exit = %d", code)
	}
	if !strings.Contains(stderr.String(), "--log-level") {
		t.Errorf("usage missing flags:\n%s", stderr.String())
	}
}

func TestRunBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--nope"}, &stdout, &stderr); code != 2 {
		t.Errorf("unknown flag exit = %d, want 2", code)
	}
	if code := run([]string{"--timeout", "1s"}, &stdout, &stderr); code != 1 {
		t.Errorf("--timeout without --code exit = %d, want 1", code)
	}
	if code := run([]string{"--code", "Up <Bogus>"}, &stdout, &stderr); code != 1 {
		t.Errorf("bad --code exit = %d, want 1", code)
	}
}

func TestBuildOptionsCode(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.toml")
	f := &flags{
		configPath: missing,
		code:       "Up Up Down Down",
		timeout:    300 * time.Millisecond,
		watch:      true,
	}

	opts, err := buildOptions(f)
	if err != nil {
		t.Fatalf("buildOptions: %v", err)
	}
	if opts.Watch {
		t.Error("watch not disabled for --code")
	}
	if opts.ConfigPath != missing {
		t.Errorf("ConfigPath = %q", opts.ConfigPath)
	}
	if opts.Config == nil || len(opts.Config.Codes) != 1 {
		t.Fatalf("Config = %+v", opts.Config)
	}

	mc, err := opts.Config.Codes[0].MatcherConfig()
	if err != nil {
		t.Fatal(err)
	}
	if mc.NotificationID != sequence.DefaultNotificationID || mc.IdleTimeout != 300*time.Millisecond {
		t.Errorf("matcher config = %+v", mc)
	}
	if got := key.FormatCodes(mc.Target); got != "Up Up Down Down" {
		t.Errorf("target = %q", got)
	}
}

func TestBuildOptionsInvalid(t *testing.T) {
	_, err := buildOptions(&flags{code: "Up", timeout: -time.Second})
	if err == nil {
		t.Error("negative timeout accepted")
	}

	_, err = buildOptions(&flags{code: "Up <Bogus>"})
	if !errors.Is(err, key.ErrInvalidSpec) {
		t.Errorf("bad code err = %v", err)
	}
}
