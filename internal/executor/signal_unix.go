//go:build !windows

package executor

import (
	"os"
	"syscall"
)

func signalTerminate(p *os.Process) error { return p.Signal(syscall.SIGTERM) }

func signalPause(p *os.Process) error { return p.Signal(syscall.SIGSTOP) }

func signalResume(p *os.Process) error { return p.Signal(syscall.SIGCONT) }
