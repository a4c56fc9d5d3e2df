//go:build windows

package executor

import (
	"errors"
	"os"
)

func signalTerminate(p *os.Process) error { return p.Kill() }

func signalPause(p *os.Process) error { return errors.New("pause not supported on windows") }

func signalResume(p *os.Process) error { return errors.New("resume not supported on windows") }
