package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const reexecEnv = "CADENCE_TEST_RUN_MAIN"

// TestMain lets the test binary stand in for the cadence binary
func TestMain(m *testing.M) {
	if os.Getenv(reexecEnv) == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type result struct {
	stdout, stderr string
	code           int
}

func run(t *testing.T, env []string, args ...string) result {
	t.Helper()
	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run cadence %v: %v", args, err)
	}
	return res
}

func mustRun(t *testing.T, env []string, args ...string) string {
	t.Helper()
	res := run(t, env, args...)
	if res.code != 0 {
		t.Fatalf("cadence %s exited %d\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), res.code, res.stdout, res.stderr)
	}
	return res.stdout
}

func isolatedEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "CADENCE_") || strings.HasPrefix(e, "XDG_CONFIG_HOME=") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"CADENCE_DB="+filepath.Join(home, "data", "cadence.db"),
		reexecEnv+"=1",
	)
}

func TestEndToEndWorkflow(t *testing.T) {
	env := isolatedEnv(t)

	out := mustRun(t, env, "init")
	if !strings.Contains(out, "Initialized cadence storage") {
		t.Errorf("unexpected init output: %s", out)
	}

	mustRun(t, env, "habit", "create", "--name", "Reading", "-p", "daily", "-t", "Read", "-t", "Summarize")

	// A habit without tasks is finished, so the first sync archives an
	// empty batch and refills it.
	out = mustRun(t, env, "sync")
	if !strings.Contains(out, "Reading") {
		t.Errorf("expected the refilled habit in sync output: %s", out)
	}

	out = mustRun(t, env, "task", "list")
	if !strings.Contains(out, "Read") || !strings.Contains(out, "Summarize") {
		t.Errorf("expected both tasks listed: %s", out)
	}

	mustRun(t, env, "task", "complete", "1", "2")
	mustRun(t, env, "sync")

	out = mustRun(t, env, "report", "list")
	if strings.Count(out, "Reading") != 2 {
		t.Errorf("expected two archived batches: %s", out)
	}
	out = mustRun(t, env, "report", "longest")
	if !strings.Contains(out, "Reading") {
		t.Errorf("expected a streak leader: %s", out)
	}

	mustRun(t, env, "backup", "create")
	out = mustRun(t, env, "backup", "list")
	if !strings.Contains(out, "cadence-") {
		t.Errorf("expected a backup listed: %s", out)
	}

	out = mustRun(t, env, "habit", "list")
	if !strings.Contains(out, "Reading") {
		t.Errorf("expected the habit listed: %s", out)
	}
}

func TestErrorsExitOne(t *testing.T) {
	env := isolatedEnv(t)

	res := run(t, env, "habit", "list")
	if res.code != 1 {
		t.Fatalf("expected exit 1 before init, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "Error:") || !strings.Contains(res.stderr, "cadence init") {
		t.Errorf("unexpected stderr: %s", res.stderr)
	}

	mustRun(t, env, "init")
	res = run(t, env, "habit", "show", "999")
	if res.code != 1 {
		t.Fatalf("expected exit 1 for a missing habit, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "Hint:") {
		t.Errorf("expected a hint for a missing habit: %s", res.stderr)
	}
}
