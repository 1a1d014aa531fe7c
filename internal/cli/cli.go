// Package cli implements the docchat command line against the same store
// and session as the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/iyunix/go-docchat/internal/services/session"
)

// Env is what a command runs against.
type Env struct {
	Session *session.Session
	Out     io.Writer
	Err     io.Writer
	// WriteClipboard defaults to the system clipboard.
	WriteClipboard func(text string) error
}

// Opener builds an Env once flags are parsed. The returned func releases it.
type Opener func(ctx context.Context, verbose bool) (*Env, func(), error)

type app struct {
	open    Opener
	env     *Env
	close   func()
	verbose bool
}

// Execute runs the command line and releases the Env even when the
// command fails.
func Execute(ctx context.Context, open Opener, args []string) error {
	root, a := newRoot(open)
	defer a.release()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newRoot assembles the command tree.
func newRoot(open Opener) (*cobra.Command, *app) {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "docchat",
		Short:         "Chat with your documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, closeFn, err := a.open(cmd.Context(), a.verbose)
			if err != nil {
				return err
			}
			if env.Out == nil {
				env.Out = cmd.OutOrStdout()
			}
			if env.Err == nil {
				env.Err = cmd.ErrOrStderr()
			}
			if env.WriteClipboard == nil {
				env.WriteClipboard = clipboard.WriteAll
			}
			a.env, a.close = env, closeFn
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.release() },
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.loadCommand(),
		a.askCommand(),
		a.listCommand(),
		a.showCommand(),
		a.deleteCommand(),
		a.copyCommand(),
		a.exportCommand(),
	)
	return root, a
}

func (a *app) release() {
	if a.close != nil {
		a.close()
		a.close = nil
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid conversation id %q", s)
	}
	return uint(id), nil
}
