// Command selah-index builds the concordance and topical index artifacts of
// the reading app from spreadsheet and database exports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/pipeline"
	"github.com/FocuswithJustin/selah-index/core/ref"
	"github.com/FocuswithJustin/selah-index/core/schema"
	"github.com/FocuswithJustin/selah-index/core/sqlite"
	"github.com/FocuswithJustin/selah-index/internal/config"
	"github.com/FocuswithJustin/selah-index/internal/logging"
	"github.com/FocuswithJustin/selah-index/internal/rowsource"
	"github.com/FocuswithJustin/selah-index/internal/validation"
)

const version = "0.1.0"

// stdout receives command output. Logs go to stderr.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for selah-index.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (json, text)" default:"json" enum:"json,text"`

	Build    BuildCmd    `cmd:"" help:"Build index artifacts from input files"`
	Detect   DetectCmd   `cmd:"" help:"Print the column roles detected in an input"`
	ParseRef ParseRefCmd `cmd:"" name:"parse-ref" help:"Canonicalize biblical references"`
	Books    BooksCmd    `cmd:"" help:"List the canonical books"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// ReadFlags are the reader options shared by build and detect.
type ReadFlags struct {
	SkipRows  int    `name:"skip-rows" help:"Rows to skip before the header row"`
	Sheet     string `help:"XLSX worksheet to read (default: first sheet)"`
	Table     string `help:"SQLite table to read (default: first table)"`
	Delimiter string `help:"Field delimiter of text inputs (default: comma, tab for .tsv)"`
}

// options converts the flags to reader options.
func (f ReadFlags) options() (rowsource.Options, error) {
	if f.SkipRows < 0 {
		return rowsource.Options{}, errors.NewValidation("skip-rows", "must not be negative")
	}
	comma, err := parseDelimiter(f.Delimiter)
	if err != nil {
		return rowsource.Options{}, err
	}
	return rowsource.Options{SkipRows: f.SkipRows, Sheet: f.Sheet, Table: f.Table, Comma: comma}, nil
}

// parseDelimiter accepts a single character, or "tab" / `\t`.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.NewValidation("delimiter", "must be a single character")
	}
	return r[0], nil
}

// BuildCmd runs a build over explicit inputs or a manifest.
type BuildCmd struct {
	Inputs   []string `arg:"" optional:"" help:"Input files (CSV, TSV, XLSX or SQLite)" type:"path"`
	Out      string   `short:"o" help:"Output directory" type:"path"`
	Config   string   `short:"c" help:"Build manifest (YAML)" type:"path"`
	Parallel int      `help:"Number of jobs run at once (default: 2)"`
	Report   string   `help:"Write the build report to this file instead of stdout" type:"path"`

	ReadFlags `embed:""`
}

func (c *BuildCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx)
}

func (c *BuildCmd) run(ctx context.Context) error {
	cfg, opener, err := c.plan()
	if err != nil {
		return err
	}
	cfg.Hooks = logging.Hooks()

	res, err := pipeline.Build(ctx, opener, cfg)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		logging.SourceRejected(f.Path, f.Err)
	}
	st := ref.CacheStats()
	logging.Debug("reference_cache", "hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions)
	if err := c.writeReport(res); err != nil {
		return err
	}
	return res.Err()
}

// plan merges the manifest, if any, with the flags. Flags win: explicit
// inputs replace the manifest sources and set reader flags override each
// source's options.
func (c *BuildCmd) plan() (pipeline.Config, rowsource.Opener, error) {
	if err := c.validatePaths(); err != nil {
		return pipeline.Config{}, rowsource.Opener{}, err
	}
	flags, err := c.ReadFlags.options()
	if err != nil {
		return pipeline.Config{}, rowsource.Opener{}, err
	}
	if c.Parallel < 0 {
		return pipeline.Config{}, rowsource.Opener{}, errors.NewValidation("parallel", "must not be negative")
	}

	cfg := pipeline.Config{Inputs: c.Inputs, OutDir: c.Out, Parallel: c.Parallel}
	opener := rowsource.Opener{Defaults: flags}
	if c.Config == "" {
		return cfg, opener, nil
	}

	m, err := config.LoadFile(c.Config)
	if err != nil {
		return pipeline.Config{}, rowsource.Opener{}, err
	}
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = m.Paths()
		opener.PerPath = make(map[string]rowsource.Options, len(m.Sources))
		for _, s := range m.Sources {
			opts, err := sourceOptions(s)
			if err != nil {
				return pipeline.Config{}, rowsource.Opener{}, err
			}
			opener.PerPath[s.Path] = overlay(opts, flags)
		}
	}
	if cfg.OutDir == "" {
		cfg.OutDir = m.Out
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = m.Parallel
	}
	return cfg, opener, nil
}

func (c *BuildCmd) validatePaths() error {
	for _, p := range c.Inputs {
		if err := validation.ValidatePath("inputs", p); err != nil {
			return err
		}
	}
	optional := []struct{ field, path string }{
		{"out", c.Out},
		{"config", c.Config},
		{"report", c.Report},
	}
	for _, o := range optional {
		if o.path == "" {
			continue
		}
		if err := validation.ValidatePath(o.field, o.path); err != nil {
			return err
		}
	}
	return nil
}

func sourceOptions(s config.Source) (rowsource.Options, error) {
	comma, err := parseDelimiter(s.Delimiter)
	if err != nil {
		return rowsource.Options{}, err
	}
	return rowsource.Options{SkipRows: s.SkipRows, Sheet: s.Sheet, Table: s.Table, Comma: comma}, nil
}

// overlay returns base with every non-zero field of top applied.
func overlay(base, top rowsource.Options) rowsource.Options {
	if top.SkipRows != 0 {
		base.SkipRows = top.SkipRows
	}
	if top.Sheet != "" {
		base.Sheet = top.Sheet
	}
	if top.Table != "" {
		base.Table = top.Table
	}
	if top.Comma != 0 {
		base.Comma = top.Comma
	}
	return base
}

func (c *BuildCmd) writeReport(res *pipeline.BuildResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if c.Report == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Report), 0755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(c.Report), err)
	}
	if err := os.WriteFile(c.Report, data, 0644); err != nil {
		return errors.NewIO("write", c.Report, err)
	}
	return nil
}

// DetectCmd prints the role → column mapping of one input.
type DetectCmd struct {
	Input string `arg:"" help:"Input file" type:"path"`

	ReadFlags `embed:""`
}

// detection is the output of the detect command.
type detection struct {
	Source      string              `json:"source"`
	Header      []string            `json:"header"`
	Columns     map[schema.Role]int `json:"columns"`
	Concordance bool                `json:"concordance"`
	Topics      bool                `json:"topics"`
}

func (c *DetectCmd) Run() error {
	if err := validation.ValidatePath("input", c.Input); err != nil {
		return err
	}
	opts, err := c.ReadFlags.options()
	if err != nil {
		return err
	}
	src, err := rowsource.Open(c.Input, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	s, err := schema.Detect(src.Header())
	if err != nil {
		var sde *errors.SchemaDetectionError
		if errors.As(err, &sde) {
			sde.Source = c.Input
		}
		return err
	}

	out := detection{
		Source:      c.Input,
		Header:      s.Header,
		Columns:     s.Columns,
		Concordance: s.SupportsConcordance(),
		Topics:      s.SupportsTopics(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ParseRefCmd canonicalizes references given on the command line.
type ParseRefCmd struct {
	Texts []string `arg:"" help:"References such as \"Gen 32:15-17\" or \"1 Jn 4:8\""`
}

func (c *ParseRefCmd) Run() error {
	failed := 0
	for _, text := range c.Texts {
		r, err := ref.Parse(text)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s\terror: %v\n", text, err)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", text, r)
	}
	if failed > 0 {
		return errors.NewValidation("text", fmt.Sprintf("%d of %d references could not be parsed", failed, len(c.Texts)))
	}
	return nil
}

// BooksCmd lists the canonical book table.
type BooksCmd struct {
	JSON bool `help:"Print the table as JSON"`
}

func (c *BooksCmd) Run() error {
	books := ref.Books()
	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}
	for _, b := range books {
		fmt.Fprintf(stdout, "%2d  %-2s  %-6s  %s\n", b.Order, b.Testament, b.OSIS, b.Name)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "selah-index version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

func initLogging(level, format string) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return err
	}
	logging.InitLogger(l, f)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("selah-index"),
		kong.Description("Selah index builder - concordance and topical index artifacts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(initLogging(CLI.LogLevel, CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
