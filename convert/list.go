package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"cssrebase/common"
	"cssrebase/css"
	"cssrebase/state"
	"cssrebase/uri"
)

type listedRef struct {
	URL     string `yaml:"url"`
	Context string `yaml:"context"`
	Rebased string `yaml:"rebased,omitempty"`
}

type listedSheet struct {
	Source     string      `yaml:"source"`
	References []listedRef `yaml:"references"`
}

// List is the action of refs command.
func List(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("refs")

	format, err := common.ParseListFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("unable to use output format: %w", err)
	}
	if cmd.Args().Len() == 0 {
		return errors.New("no input sources have been specified")
	}
	if err := prepareBases(cmd, env); err != nil {
		return err
	}

	sources, err := expandSources(ctx, cmd.Args().Slice(), env, log)
	if err != nil {
		return err
	}

	sheets, err := collectRefs(ctx, sources, env, log)
	if err != nil {
		return err
	}
	return writeRefs(cmd.Root().Writer, format, sheets)
}

// collectRefs builds reference inventory for every source. When target base
// is known each reference also gets its rebased value.
func collectRefs(ctx context.Context, sources []string, env *state.LocalEnv, log *zap.Logger) ([]listedSheet, error) {
	parser := css.NewParser(log)

	var (
		sheets []listedSheet
		errs   error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
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

		from := env.SourceBase(filepath.ToSlash(src))
		sheet := listedSheet{Source: src}
		for _, ref := range parser.References([]byte(text), src) {
			lr := listedRef{URL: ref.URL, Context: ref.Context}
			if len(env.ToBase) > 0 {
				lr.Rebased = uri.Rebase(ref.URL, from, env.ToBase)
			}
			sheet.References = append(sheet.References, lr)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, errs
}

func writeRefs(w io.Writer, format common.ListFormat, sheets []listedSheet) error {
	switch format {
	case common.ListFormatYaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sheets); err != nil {
			return fmt.Errorf("unable to encode references: %w", err)
		}
		return enc.Close()
	case common.ListFormatText:
		for _, s := range sheets {
			if _, err := fmt.Fprintln(w, s.Source); err != nil {
				return err
			}
			for _, r := range s.References {
				line := fmt.Sprintf("\t%s\t%s", r.Context, r.URL)
				if len(r.Rebased) > 0 {
					line += " -> " + r.Rebased
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %s", format)
	}
}
