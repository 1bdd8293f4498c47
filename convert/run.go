// Package convert implements actions of program commands: rewriting
// stylesheets found in files, directories and archives, bundling them,
// rebasing single references and listing references.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cssrebase/archive"
	"cssrebase/css"
	"cssrebase/state"
	"cssrebase/uri"
)

// Run is the action of rewrite command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := withRunID(env.Log.Named("rewrite"))

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if err := checkLocal(src); err != nil {
		return err
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := prepareBases(cmd, env); err != nil {
		return err
	}
	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.String("from", env.FromBase), zap.String("to", env.ToBase))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// withRunID tags all messages of a single command run.
func withRunID(log *zap.Logger) *zap.Logger {
	id, err := uuid.NewV7()
	if err != nil {
		return log
	}
	return log.With(zap.Stringer("run", id))
}

// checkLocal rejects remote locations, stylesheets are never fetched.
func checkLocal(src string) error {
	if _, _, ok := uri.Protocol(src); ok {
		return fmt.Errorf("remote sources are not supported (%s)", src)
	}
	return nil
}

// prepareBases stores explicit bases requested on command line.
func prepareBases(cmd *cli.Command, env *state.LocalEnv) (err error) {
	if env.FromBase, err = state.SlashBase(cmd.String("from"), false); err != nil {
		return err
	}
	if env.ToBase, err = state.SlashBase(cmd.String("to"), false); err != nil {
		return err
	}
	return nil
}

// process handles the core rewriting logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if strings.EqualFold(filepath.Ext(dst), ".zip") {
				if err := repackArchive(ctx, head, tail, dst, log); err != nil {
					return fmt.Errorf("unable to repack archive: %w", err)
				}
				break
			}
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) == 0 && env.Cfg.Rewrite.HasExtension(head) {
			data, err := os.ReadFile(head)
			if err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				break
			}
			s := sheet{name: filepath.Base(head), origin: head, from: filepath.ToSlash(head), data: data}
			if err := processSheet(ctx, s, dst, fsTarget(env), log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding stylesheets and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		if !env.Cfg.Rewrite.HasExtension(path) {
			log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
			return nil
		}

		count++

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		s := sheet{name: rel, origin: path, from: filepath.ToSlash(path), data: data}
		if err := processSheet(ctx, s, dst, fsTarget(env), log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// entryName returns name of archive entry, forcing requested code page for
// names not marked as UTF-8.
func entryName(f *zip.File, env *state.LocalEnv, log *zap.Logger) string {
	name := f.FileHeader.Name
	if env.CodePage == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	n, err := env.CodePage.NewDecoder().String(name)
	if err != nil {
		cp, _ := ianaindex.IANA.Name(env.CodePage)
		log.Warn("Unable to convert archive name from specified encoding",
			zap.String("charset", cp), zap.String("path", name), zap.Error(err))
		return name
	}
	return n
}

// processArchive walks all files inside archive, finds stylesheets under
// "pathIn" and extracts rewritten versions to "dst". Archive root is used as
// "/" for all archive entries.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	outRoot := filepath.Join(dst, pathOut)
	if env.NoDirs {
		outRoot = dst
	}
	target := archiveTarget(outRoot, env)

	err = archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entryName(f, env, log)
		if !env.Cfg.Rewrite.HasExtension(name) {
			log.Debug("Skipping file, not recognized as stylesheet", zap.String("archive", arc), zap.String("file", name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}

		s := sheet{
			name:   filepath.Join(pathOut, filepath.FromSlash(name)),
			origin: filepath.Join(arc, filepath.FromSlash(name)),
			from:   "/" + name,
			data:   data,
		}
		if env.NoDirs || len(pathOut) == 0 {
			s.name = filepath.FromSlash(name)
		}
		if err := processSheet(ctx, s, outRoot, target, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", name), zap.Error(err))
		}
		return nil
	})
	return err
}

// repackArchive produces new archive "dst" with stylesheets under "pathIn"
// rewritten in place, everything else is copied as is.
func repackArchive(ctx context.Context, path, pathIn, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	if same, err := sameFile(path, dst); err != nil {
		return err
	} else if same {
		return fmt.Errorf("destination archive must differ from source (%s)", dst)
	}
	if err := prepareOutput(dst, env.Overwrite, log); err != nil {
		return err
	}

	count, changed := 0, 0
	match := func(name string) bool {
		return archive.Under(name, pathIn) && env.Cfg.Rewrite.HasExtension(name)
	}
	err := archive.Repack(path, dst, match, func(name string, r io.Reader) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		text, c, err := decodeStylesheet(data, env.Cfg.Rewrite.HonorCharset)
		if err != nil {
			return nil, err
		}

		// entries stay where they are, so by default references only get normalized
		from := env.SourceBase("/" + name)
		to := env.ToBase
		if len(to) == 0 {
			to = "/" + name
		}
		result, n := rewriteText(text, from, to)

		count++
		log.Debug("Rewritten archive entry", zap.String("file", name), zap.Int("changed", n), zap.Stringer("encoding", c))
		if n == 0 {
			return nil, nil
		}
		changed += n
		return c.encode(result)
	})
	if err != nil {
		return err
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	log.Info("Archive repacked", zap.String("to", dst), zap.Int("stylesheets", count), zap.Int("changed", changed))
	env.Rpt.Store("results/"+filepath.Base(dst), dst)
	return nil
}

func sameFile(a, b string) (bool, error) {
	fa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	fb, err := os.Stat(b)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return os.SameFile(fa, fb), nil
}

// sheet is a single stylesheet to be rewritten.
type sheet struct {
	name   string // path relative to processed directory or archive
	origin string // where it came from, for logs and report
	from   string // location references are relative to
	data   []byte
}

// targetFunc returns base rewritten stylesheet will be relative to given the
// path it will be written to.
type targetFunc func(output string) (string, error)

// fsTarget is used when source and result share filesystem namespace.
func fsTarget(env *state.LocalEnv) targetFunc {
	return func(output string) (string, error) {
		return env.TargetBase(filepath.ToSlash(output))
	}
}

// archiveTarget maps output directory onto archive root so that references
// of extracted stylesheets stay in archive namespace. Site root is honored
// when it is located inside output directory.
func archiveTarget(outRoot string, env *state.LocalEnv) targetFunc {
	return func(output string) (string, error) {
		if len(env.ToBase) > 0 {
			return env.ToBase, nil
		}
		if root := env.Cfg.Rewrite.SiteRoot; len(root) > 0 {
			abs, err := filepath.Abs(root)
			if err != nil {
				return "", fmt.Errorf("unable to resolve site root (%s): %w", root, err)
			}
			if rel, err := filepath.Rel(outRoot, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				if rel == "." {
					return "/", nil
				}
				return "/" + filepath.ToSlash(rel) + "/", nil
			}
		}
		rel, err := filepath.Rel(outRoot, output)
		if err != nil {
			return "", err
		}
		return "/" + filepath.ToSlash(rel), nil
	}
}

// rewriteText rebases references and returns number of changed ones.
func rewriteText(text, from, to string) (string, int) {
	changed := 0
	rebase := css.Rebaser(from, to)
	result := css.Replace(text, func(m css.Match) string {
		r := rebase(m)
		if r != m.Literal {
			changed++
		}
		return r
	})
	return result, changed
}

// prepareOutput makes sure output file could be written.
func prepareOutput(outputName string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// processSheet rewrites single stylesheet and writes result under "dst".
func processSheet(ctx context.Context, s sheet, dst string, target targetFunc, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var (
		outputName string
		changed    int
	)

	log.Info("Rewrite starting", zap.String("from", s.origin))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Rewrite ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("rewrite panic: %v", r)
		} else if rerr == nil {
			log.Info("Rewrite completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.Int("changed", changed))
		}
	}(time.Now())

	text, c, err := decodeStylesheet(s.data, env.Cfg.Rewrite.HonorCharset)
	if err != nil {
		return err
	}

	outputName = buildOutputPath(s.name, dst, env)
	toBase, err := target(outputName)
	if err != nil {
		return err
	}
	fromBase := env.SourceBase(s.from)
	log.Debug("Rebasing references", zap.String("from", fromBase), zap.String("to", toBase), zap.Stringer("encoding", c))

	var result string
	result, changed = rewriteText(text, fromBase, toBase)

	data, err := c.encode(result)
	if err != nil {
		return err
	}

	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}
	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store rewrite source and result for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData("sources/"+strings.TrimPrefix(filepath.ToSlash(s.origin), "/"), s.data)
		name := filepath.Base(outputName)
		if rel, err := filepath.Rel(dst, outputName); err == nil {
			name = filepath.ToSlash(rel)
		}
		env.Rpt.Store("results/"+name, outputName)
	}
	return nil
}
