// Package exec implements the local-command step. Command bodies are
// operator-authored and run unsandboxed through the shell.
package exec

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

const defaultTimeout = 60 * time.Second

// Factory returns the runCommand step factory.
func Factory() protocol.StepFactory {
	return steps.NewFactory("runCommand",
		steps.ObjectSchema([]string{"command"}, map[string]any{
			"command":        steps.StringProp(),
			"timeout_ms":     steps.NumberProp(),
			"store_variable": steps.StringProp(),
		}),
		func(config map[string]any) (protocol.StepHandler, error) { return newRunCommand(config) },
	)
}

type runCommand struct {
	command  string
	timeout  time.Duration
	storeKey string
}

func newRunCommand(config map[string]any) (*runCommand, error) {
	command, err := steps.Require(config, "command")
	if err != nil {
		return nil, err
	}

	timeout := defaultTimeout
	if ms := steps.Int(config, "timeout_ms", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	return &runCommand{
		command:  command,
		timeout:  timeout,
		storeKey: steps.StoreKey(config),
	}, nil
}

func (h *runCommand) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	resolved := execCtx.Scope.Substitute(h.command)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", resolved)

	// The shell runs in its own process group so the whole tree dies on
	// timeout. Killing only the shell leaves children holding the stdout
	// pipe, which would block Output past the deadline. WaitDelay bounds
	// the pipe drain in case a grandchild escapes the group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("command failed: %w", err)
	}

	stdout := strings.TrimSpace(string(out))
	if h.storeKey != "" {
		execCtx.Scope.Set(h.storeKey, stdout)
	}

	return stdout, nil
}
