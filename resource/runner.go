// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package resource implements the child-process execution harness that
// backs OCF/LSB/Nagios-style resource-agent discovery: agent stdout/stderr
// become non-blocking line sources posted to the reactor, and a wall-clock
// timeout escalates SIGTERM then SIGKILL before declaring the process
// hung. Only this execution contract is in scope; interpreting a specific
// agent convention's exit codes or stdout grammar is left to the caller.
package resource

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/assimilation/assimilation-official-sub001/reactor"
)

// Timeouts bounds how long a spawned agent may run before escalation.
type Timeouts struct {
	// Wall is the soft deadline; at expiry SIGTERM is sent.
	Wall time.Duration
	// Grace is how long after SIGTERM before SIGKILL is sent and the
	// process is declared hung.
	Grace time.Duration
}

// Run spawns name with args and env, wiring its stdout and stderr into
// reactor.ChildOutputPayload events (one per line, plus a final EOF-marked
// event per stream) and posting exactly one reactor.ChildExitPayload when
// it is done — whether it exited normally, was killed, or was declared
// hung. Run itself blocks (it owns the child's wait loop); callers invoke
// it from its own goroutine, matching the non-blocking-loop contract of §5
// (the loop thread only ever sees the posted events, never the wait).
func Run(r *reactor.Reactor, ctx context.Context, name string, args, env []string, to Timeouts) {
	cmd := exec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.Post(reactor.Event{Kind: reactor.KindChildExit, Payload: reactor.ChildExitPayload{Err: err}})
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.Post(reactor.Event{Kind: reactor.KindChildExit, Payload: reactor.ChildExitPayload{Err: err}})
		return
	}

	if err := cmd.Start(); err != nil {
		r.Post(reactor.Event{Kind: reactor.KindChildExit, Payload: reactor.ChildExitPayload{Err: err}})
		return
	}
	pid := cmd.Process.Pid

	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(r, pid, false, stdout, &wg)
	go streamLines(r, pid, true, stderr, &wg)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	status, waitErr := waitWithEscalation(cmd, done, to)
	r.Post(reactor.Event{Kind: reactor.KindChildExit, Payload: reactor.ChildExitPayload{
		PID:    pid,
		Status: status,
		Err:    waitErr,
	}})
}

func streamLines(r *reactor.Reactor, pid int, stderr bool, rc io.ReadCloser, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		r.Post(reactor.Event{Kind: reactor.KindChildOutput, Payload: reactor.ChildOutputPayload{
			PID: pid, Stderr: stderr, Line: scanner.Text(),
		}})
	}
	r.Post(reactor.Event{Kind: reactor.KindChildOutput, Payload: reactor.ChildOutputPayload{
		PID: pid, Stderr: stderr, EOF: true,
	}})
}

func waitWithEscalation(cmd *exec.Cmd, done <-chan error, to Timeouts) (reactor.ExitStatus, error) {
	wallTimer := time.NewTimer(to.Wall)
	defer wallTimer.Stop()

	select {
	case err := <-done:
		return classify(cmd, err), err
	case <-wallTimer.C:
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
	graceTimer := time.NewTimer(to.Grace)
	defer graceTimer.Stop()

	select {
	case err := <-done:
		return reactor.ExitedTimeout, err
	case <-graceTimer.C:
	}

	_ = cmd.Process.Kill()
	<-done
	return reactor.ExitedHung, nil
}

func classify(cmd *exec.Cmd, err error) reactor.ExitStatus {
	if err == nil {
		return reactor.ExitedZero
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if _, signaled := exitErr.Sys().(syscall.WaitStatus); signaled && exitErr.Sys().(syscall.WaitStatus).Signaled() {
			return reactor.ExitedSignal
		}
		return reactor.ExitedNonzero
	}
	return reactor.ExitedNonzero
}
