// Package compiler runs the external type compiler that emits the derived
// sibling files (e.g. .ts to .js) consumed by the translators.
//
// Errors returned are surfaced as warnings by the pipeline; a failed compile
// never aborts a build cycle.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
)

// InputPlaceholder is substituted with the absolute input path in the
// command and its arguments.
const InputPlaceholder = "{input}"

// Default invocation of the TypeScript compiler shipped in the project's
// node_modules.
var (
	DefaultCommand = "node"
	DefaultArgs    = []string{"{input}/node_modules/typescript/lib/tsc.js", "-p", "{input}/tsconfig.json"}
)

var (
	ErrBinaryNotFound  = errors.New("compiler binary not found")
	ErrExecutionFailed = errors.New("compiler execution failed")
)

// Compiler compiles the project rooted at inputDir.
type Compiler interface {
	Compile(ctx context.Context, inputDir string) error
}

// BinaryCompiler invokes an external command inside the input directory.
type BinaryCompiler struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewBinaryCompiler returns a compiler for command, falling back to the
// default TypeScript invocation when command is empty.
func NewBinaryCompiler(command string, args []string) *BinaryCompiler {
	if command == "" {
		command = DefaultCommand
		args = DefaultArgs
	}
	return &BinaryCompiler{Command: command, Args: args}
}

// Compile implements Compiler.
func (b *BinaryCompiler) Compile(ctx context.Context, inputDir string) error {
	expand := strings.NewReplacer(InputPlaceholder, filepath.ToSlash(inputDir))
	command := expand.Replace(b.Command)
	args := make([]string, len(b.Args))
	for i, a := range b.Args {
		args[i] = expand.Replace(a)
	}

	if _, err := exec.LookPath(command); err != nil {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrBinaryNotFound, err), ferrors.CategoryCompile, "locate compiler").
			WithContext("command", command).Warning().Build()
	}
	if _, err := os.Stat(inputDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCompile, "input directory missing").Warning().Build()
	}

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = inputDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking compiler", "command", command, "args", args, "dir", inputDir)

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	outStr := stdout.String()
	errStr := stderr.String()
	if outStr != "" {
		slog.Debug("compiler stdout", "output", outStr)
	}
	if errStr != "" {
		slog.Warn("compiler stderr", "error_output", errStr)
	}

	if err != nil {
		// tsc reports diagnostics on stdout.
		output := errStr
		if output == "" {
			output = outStr
		} else if outStr != "" {
			output = outStr + "\n" + errStr
		}
		wrapped := fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		return ferrors.WrapError(wrapped, ferrors.CategoryCompile, "compiler exited with error").
			WithContext("command", command).
			WithContext("output", strings.TrimSpace(output)).
			Warning().Build()
	}
	slog.Info("Compile complete", logfields.Duration(dur))
	return nil
}

// Noop performs no compilation; used for js projects and tests.
type Noop struct{}

func (Noop) Compile(_ context.Context, inputDir string) error {
	slog.Debug("Noop compiler skipping compile", "dir", inputDir)
	return nil
}
