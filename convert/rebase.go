package convert

import (
	"context"
	"errors"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssrebase/state"
	"cssrebase/uri"
)

// Rebase is the action of rebase command.
func Rebase(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	from, to := cmd.String("from"), cmd.String("to")
	if len(from) == 0 || len(to) == 0 {
		return errors.New("both --from and --to bases are required")
	}
	if cmd.Args().Len() == 0 {
		return errors.New("no references have been specified")
	}
	env.Log.Debug("Rebasing references", zap.String("from", from), zap.String("to", to))
	return printRebased(cmd.Root().Writer, from, to, cmd.Args().Slice())
}

// printRebased writes one rebased reference per line.
func printRebased(w io.Writer, from, to string, refs []string) error {
	for _, ref := range refs {
		if _, err := fmt.Fprintln(w, uri.Rebase(ref, from, to)); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
	}
	return nil
}
