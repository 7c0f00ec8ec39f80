package procrunner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Exec runs commands on the host. Spawned processes are placed in their own
// process group so cancellation reaches descendants.
type Exec struct{}

// NewExec constructs the host runner.
func NewExec() *Exec { return &Exec{} }

// Run starts the command and blocks until it exits or ctx fires. On
// cancellation the full process tree is killed and ctx.Err() is returned.
func (e *Exec) Run(ctx context.Context, command Command) (Result, error) {
	if command.Path == "" {
		return Result{}, errors.New("procrunner: command path required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	cmd := exec.Command(command.Path, command.Args...)
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	configureCommandProcess(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("procrunner: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("procrunner: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("procrunner: start %s: %w", command.Path, err)
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, stdout, &outBuf, command.OnStdout)
	go drain(&wg, stderr, &errBuf, command.OnStderr)

	waitDone := make(chan error, 1)
	go func() {
		wg.Wait()
		waitDone <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		terminateCommandProcess(cmd)
		<-waitDone
		return Result{
			ExitCode: -1,
			Stdout:   outBuf.String(),
			Stderr:   errBuf.String(),
		}, ctx.Err()
	case waitErr := <-waitDone:
		result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
				return result, nil
			}
			return result, fmt.Errorf("procrunner: wait %s: %w", command.Path, waitErr)
		}
		return result, nil
	}
}

func drain(wg *sync.WaitGroup, r io.Reader, buf *bytes.Buffer, onLine func(string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}
}

var _ Runner = (*Exec)(nil)
