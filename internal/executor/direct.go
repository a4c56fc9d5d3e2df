package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const killGrace = 5 * time.Second

// DefaultTimeoutSeconds applies when a request carries no timeout.
const DefaultTimeoutSeconds = 300

// buildCommand picks the interpreter for the platform. PowerShell only
// exists on Windows hosts; AppleScript prefers osascript on macOS when the
// script reads like AppleScript, and otherwise goes through bash so
// shebanged scripts still run.
func buildCommand(req ExecutionRequest) *exec.Cmd {
	switch req.Platform {
	case "powershell":
		if runtime.GOOS == "windows" {
			return exec.Command("powershell.exe", "-ExecutionPolicy", "Bypass", "-Command", req.Script)
		}
		return exec.Command("pwsh", "-Command", req.Script)
	case "applescript":
		if runtime.GOOS == "darwin" && looksLikeAppleScript(req.Script) {
			return exec.Command("osascript", "-e", req.Script)
		}
		return exec.Command("/bin/bash", "-c", req.Script)
	default:
		return exec.Command("/bin/bash", "-c", req.Script)
	}
}

func looksLikeAppleScript(script string) bool {
	lower := strings.ToLower(script)
	for _, sig := range []string{"#!/usr/bin/osascript", "tell application", "on run", "display notification", "display dialog"} {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// buildEnv merges the process environment with the request's map and the
// two always-present marker variables.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"BK25_EXECUTION=true",
		fmt.Sprintf("BK25_TIMESTAMP=%d", time.Now().Unix()),
	)
	return env
}

// runProcess starts the subprocess for req and waits for exit, timeout or
// context cancellation. started is called once the process is live so the
// caller can keep a handle for pause and cancel; it may be nil.
func runProcess(ctx context.Context, req ExecutionRequest, started func(*exec.Cmd)) ExecutionResult {
	timeout := req.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}

	cmd := buildCommand(req)
	cmd.Env = buildEnv(req.Environment)
	if req.WorkingDirectory != "" {
		if err := os.MkdirAll(req.WorkingDirectory, 0o755); err != nil {
			return ExecutionResult{Status: StatusFailed, ExitCode: -1, Error: fmt.Sprintf("working directory: %v", err)}
		}
		cmd.Dir = req.WorkingDirectory
	}
	if req.UserInput != "" {
		cmd.Stdin = strings.NewReader(req.UserInput)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ExecutionResult{Status: StatusFailed, ExitCode: -1, Error: fmt.Sprintf("start process: %v", err)}
	}
	if started != nil {
		started(cmd)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(time.Duration(timeout) * time.Second)
	defer timer.Stop()

	result := ExecutionResult{Status: StatusCompleted}
	select {
	case err := <-done:
		result.ExitCode = cmd.ProcessState.ExitCode()
		if err != nil && result.ExitCode == 0 {
			result.ExitCode = -1
		}
		if result.ExitCode == 0 {
			result.Success = true
		} else {
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("exit code %d", result.ExitCode)
		}
	case <-timer.C:
		terminateProcess(cmd, done)
		result.Status = StatusTimeout
		result.ExitCode = -1
		result.Error = fmt.Sprintf("execution timed out after %ds", timeout)
	case <-ctx.Done():
		terminateProcess(cmd, done)
		result.Status = StatusCancelled
		result.ExitCode = -1
		result.Error = "execution cancelled"
	}

	result.Output = stdout.String()
	result.ErrorOutput = stderr.String()
	result.DurationSec = time.Since(start).Seconds()
	return result
}

// terminateProcess asks the process to exit and kills it after a grace
// period.
func terminateProcess(cmd *exec.Cmd, done chan error) {
	if cmd.Process == nil {
		return
	}
	if err := signalTerminate(cmd.Process); err != nil {
		cmd.Process.Kill()
		<-done
		return
	}
	select {
	case <-done:
	case <-time.After(killGrace):
		slog.Warn("executor.kill_after_grace", "pid", cmd.Process.Pid)
		cmd.Process.Kill()
		<-done
	}
}

// ExecuteDirect runs a single request synchronously, bypassing the queue.
// Admission is enforced here because direct runs never pass through
// Submit.
func ExecuteDirect(ctx context.Context, req ExecutionRequest) ExecutionResult {
	if req.Policy == "" {
		req.Policy = PolicyStandard
	}
	if err := Admit(req.Script, req.Platform, req.Policy, req.TimeoutSeconds); err != nil {
		return ExecutionResult{Status: StatusFailed, ExitCode: -1, Error: err.Error()}
	}
	slog.Info("executor.direct", "platform", req.Platform, "policy", req.Policy)
	return runProcess(ctx, req, nil)
}
