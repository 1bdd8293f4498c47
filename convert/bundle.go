package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssrebase/state"
)

// Bundle is the action of bundle command: all sources are rewritten to the
// location of a single output file and concatenated.
func Bundle(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := withRunID(env.Log.Named("bundle"))

	out := cmd.String("out")
	if len(out) == 0 {
		return errors.New("no output file has been specified")
	}
	if out, err = filepath.Abs(out); err != nil {
		return err
	}
	if cmd.Args().Len() == 0 {
		return errors.New("no input sources have been specified")
	}
	if env.ToBase, err = state.SlashBase(cmd.String("to"), false); err != nil {
		return err
	}
	env.Overwrite = cmd.Bool("overwrite")

	sources, err := expandSources(ctx, cmd.Args().Slice(), env, log)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no stylesheets found")
	}

	log.Info("Bundling starting", zap.Int("sources", len(sources)), zap.String("out", out))
	defer func(start time.Time) {
		if err == nil {
			log.Info("Bundling completed", zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	text, err := bundleSheets(ctx, sources, out, env, log)
	if err != nil {
		return err
	}
	if err := prepareOutput(out, env.Overwrite, log); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return fmt.Errorf("unable to write bundle: %w", err)
	}
	env.Rpt.Store("results/"+filepath.Base(out), out)
	return nil
}

// expandSources turns command line arguments into the list of stylesheets.
// Files are kept in argument order, directories expand in natural order of
// their stylesheets.
func expandSources(ctx context.Context, args []string, env *state.LocalEnv, log *zap.Logger) ([]string, error) {
	var (
		sources []string
		errs    error
	)
	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := checkLocal(arg); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		path, err := filepath.Abs(arg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		fi, err := os.Stat(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("input source was not found (%s): %w", arg, err))
			continue
		}
		if fi.Mode().IsRegular() {
			sources = append(sources, path)
			continue
		}
		if !fi.IsDir() {
			errs = multierr.Append(errs, fmt.Errorf("unexpected path mode for (%s)", arg))
			continue
		}

		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn("Skipping path", zap.String("path", p), zap.Error(err))
				return nil
			}
			if d.Type().IsRegular() && env.Cfg.Rewrite.HasExtension(p) {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sort.Sort(natural.StringSlice(found))
		log.Debug("Expanded directory", zap.String("dir", path), zap.Int("stylesheets", len(found)))
		sources = append(sources, found...)
	}
	return sources, errs
}

// bundleSheets rewrites every source from its own location to the bundle
// base. Leading @charset rules are dropped and result is UTF-8. If any source
// fails nothing is produced.
func bundleSheets(ctx context.Context, sources []string, out string, env *state.LocalEnv, log *zap.Logger) (string, error) {
	to, err := env.TargetBase(filepath.ToSlash(out))
	if err != nil {
		return "", err
	}

	var (
		b    strings.Builder
		errs error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		text, _, err := decodeStylesheet(data, env.Cfg.Rewrite.HonorCharset)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, err))
			continue
		}
		result, n := rewriteText(stripCharset(text), filepath.ToSlash(src), to)
		log.Debug("Bundled stylesheet", zap.String("file", src), zap.Int("changed", n))

		b.WriteString(result)
		if len(result) > 0 && !strings.HasSuffix(result, "\n") {
			b.WriteByte('\n')
		}
	}
	if errs != nil {
		return "", errs
	}
	return b.String(), nil
}
