// servers/agent/llamabench.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
)

// llamaBench runs llama-bench once per request and converts its JSON report
// into a RunSample.
type llamaBench struct {
	bin        string
	modelsPath string
}

// benchEntry is the subset of a llama-bench JSON record the agent reads.
type benchEntry struct {
	NPrompt   int     `json:"n_prompt"`
	NGen      int     `json:"n_gen"`
	AvgTS     float64 `json:"avg_ts"`
	SamplesNS []int64 `json:"samples_ns"`
}

type benchError struct {
	err      error
	exitCode int
	stderr   string
}

func (e *benchError) Error() string { return e.err.Error() }
func (e *benchError) Unwrap() error { return e.err }

// RunOnce implements benchmark.Executor.
func (l *llamaBench) RunOnce(ctx context.Context, cfg benchmark.RunConfig) (benchmark.RunSample, error) {
	modelPath, err := l.resolveModel(cfg)
	if err != nil {
		return benchmark.RunSample{}, err
	}
	cfg.ModelPath = modelPath

	args, err := buildArgs(cfg)
	if err != nil {
		return benchmark.RunSample{}, err
	}

	start := time.Now()
	logging.LogEvent("llama-bench start: bin=%s args=%v", l.bin, args)
	stdout, stderr, code, runErr := runCommand(ctx, l.bin, args, 25<<20, 5<<20)
	elapsed := time.Since(start)
	if runErr != nil {
		return benchmark.RunSample{}, &benchError{err: runErr, exitCode: code, stderr: stderr}
	}

	sample, err := parseBenchOutput([]byte(stdout), cfg.PrefillTokens, elapsed)
	if err != nil {
		return benchmark.RunSample{}, &benchError{err: err, exitCode: code, stderr: stderr}
	}
	return sample, nil
}

// resolveModel maps the request to a model file under modelsPath. Relative
// names never escape that directory.
func (l *llamaBench) resolveModel(cfg benchmark.RunConfig) (string, error) {
	name := cfg.ModelPath
	if name == "" {
		name = cfg.ModelName
	}
	path := name
	if !filepath.IsAbs(path) {
		if l.modelsPath == "" {
			return "", errors.New("models_path is required for relative model names")
		}
		path = filepath.Join(l.modelsPath, filepath.Clean("/"+name))
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("model file not found: %s", path)
	}
	return path, nil
}

// buildArgs produces a single-repetition llama-bench invocation:
// llama-bench -m <model> -p <prefill> -n <decode> -r 1 -ngl <layers> -o json
func buildArgs(cfg benchmark.RunConfig) ([]string, error) {
	if cfg.PrefillTokens < 1 || cfg.PrefillTokens > 131072 {
		return nil, errors.New("prefillTokens out of range (1..131072)")
	}
	if cfg.DecodeTokens < 1 || cfg.DecodeTokens > 131072 {
		return nil, errors.New("decodeTokens out of range (1..131072)")
	}

	ngl := 99
	if cfg.Accelerator == benchmark.AcceleratorCPU {
		ngl = 0
	}

	return []string{
		"-m", cfg.ModelPath,
		"-p", strconv.Itoa(cfg.PrefillTokens),
		"-n", strconv.Itoa(cfg.DecodeTokens),
		"-r", "1",
		"-ngl", strconv.Itoa(ngl),
		"-o", "json",
	}, nil
}

// parseBenchOutput picks the prompt and generation records from a
// llama-bench report. Time not spent in either test counts as init time.
func parseBenchOutput(data []byte, prefillTokens int, elapsed time.Duration) (benchmark.RunSample, error) {
	var entries []benchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return benchmark.RunSample{}, fmt.Errorf("llama-bench did not emit valid JSON: %w", err)
	}

	var sample benchmark.RunSample
	var testNS int64
	for _, e := range entries {
		switch {
		case e.NPrompt > 0 && e.NGen == 0:
			sample.PrefillTokensPerSecond = e.AvgTS
		case e.NGen > 0 && e.NPrompt == 0:
			sample.DecodeTokensPerSecond = e.AvgTS
		default:
			continue
		}
		for _, ns := range e.SamplesNS {
			testNS += ns
		}
	}
	if sample.PrefillTokensPerSecond <= 0 || sample.DecodeTokensPerSecond <= 0 {
		return benchmark.RunSample{}, errors.New("llama-bench report lacks prompt or generation results")
	}

	sample.InitTimeSeconds = max(0, elapsed.Seconds()-float64(testNS)/1e9)
	sample.TimeToFirstTokenSeconds = float64(prefillTokens)/sample.PrefillTokensPerSecond + 1/sample.DecodeTokensPerSecond
	return sample, nil
}

// resolveBenchBinary returns configured, or the per-OS default layout
// relative to the working directory.
func resolveBenchBinary(configured string) (string, error) {
	rel := configured
	if rel == "" {
		switch runtime.GOOS {
		case "windows":
			rel = "./llama.cpp-windows/llama-bench.exe"
		case "linux":
			rel = "./llama.cpp-linux/llama-bench"
		case "darwin":
			rel = "./llama.cpp-darwin/llama-bench"
		default:
			return "", errors.New("unsupported OS: " + runtime.GOOS)
		}
	}

	abs := rel
	if !filepath.IsAbs(rel) {
		if wd, err := os.Getwd(); err == nil {
			abs = filepath.Join(wd, rel)
		}
	}

	if _, err := os.Stat(abs); err != nil {
		return "", errors.New("llama-bench binary not found at: " + abs)
	}
	return abs, nil
}

func runCommand(ctx context.Context, bin string, args []string, maxStdout, maxStderr int64) (stdout, stderr string, exitCode int, err error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", 127, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", 127, err
	}

	if err := cmd.Start(); err != nil {
		return "", "", 127, err
	}

	var outBuf, errBuf bytes.Buffer
	outDone := make(chan error, 1)
	errDone := make(chan error, 1)

	go func() { outDone <- copyLimited(&outBuf, stdoutPipe, maxStdout) }()
	go func() { errDone <- copyLimited(&errBuf, stderrPipe, maxStderr) }()

	<-outDone
	<-errDone
	waitErr := cmd.Wait()

	stdout = outBuf.String()
	stderr = errBuf.String()

	if waitErr != nil {
		exitCode = exitStatus(waitErr)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout, stderr, exitCode, errors.New("llama-bench timed out")
		}
		return stdout, stderr, exitCode, waitErr
	}
	return stdout, stderr, 0, nil
}

// copyLimited keeps the first limit bytes of src and discards the rest, so
// the child never blocks on a full pipe.
func copyLimited(dst *bytes.Buffer, src io.Reader, limit int64) error {
	if _, err := io.Copy(dst, io.LimitReader(src, limit)); err != nil {
		return err
	}
	_, err := io.Copy(io.Discard, src)
	return err
}

func exitStatus(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}
