// Command ja is the terminal client for the job-application assistant.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/jobassist/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main wires signals to the command context and maps errors to exit codes.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := newApp(in, out, errOut)
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(errOut, "error:", describe(err))
	return exitCode(err)
}

// describe renders err for humans; kinds get a short hint.
func describe(err error) string {
	msg := err.Error()
	switch errs.KindOf(err) {
	case errs.KindUnauthorized:
		if errors.Is(err, errs.ErrNoSession) {
			return msg
		}
		return msg + " (your session may have expired; run `ja login`)"
	case errs.KindCanceled:
		return "canceled: " + msg
	}
	return msg
}

func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return 2
	case errs.KindUnauthorized:
		return 3
	case errs.KindCanceled:
		return 130
	}
	return 1
}
