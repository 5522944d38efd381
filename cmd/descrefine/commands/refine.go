package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/descrefine/internal/docio"
	"github.com/jmylchreest/descrefine/internal/logger"
	"github.com/jmylchreest/descrefine/internal/output"
	"github.com/jmylchreest/descrefine/pkg/refiner"
)

// defaultDocument is refined when no location is given.
const defaultDocument = "database_structure.html"

// ErrCheckFailed is returned by --check when descriptions would change.
var ErrCheckFailed = errors.New("generic descriptions found")

func newRefineCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refine [file|-|url]",
		Short: "Rewrite generic descriptions in a schema document",
		Long: `Refine rewrites placeholder descriptions in the attribute tables of an
HTML schema document. Each "TABLE: <name>" marker sets the table the
following rows belong to; the first header row with "Attribute" and
"Description" cells locates the columns.

Files are rewritten in place (atomically) unless -o is given. Stdin ("-")
and URL sources are written to stdout by default.

Examples:
  descrefine refine
  descrefine refine schema.html -o refined.html --stats
  descrefine refine schema.html --phrase "TBD" --phrase "n/a"
  curl -s https://example.com/schema.html | descrefine refine - > refined.html`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(v, cmd, map[string]string{
				"backup":              "backup",
				"normalize_cell_tags": "normalize-cell-tags",
				"max_size":            "max-size",
				"encoding":            "encoding",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefine(cmd, v, args)
		},
	}

	flags := cmd.Flags()

	// Output settings
	flags.StringP("output", "o", "", `output file ("-" for stdout, default: in place for files)`)
	flags.Bool("backup", false, "keep the original as <file>.bak when writing in place")
	flags.Bool("dry-run", false, "write nothing, report the changes that would be made")
	flags.Bool("check", false, "exit non-zero if any description would change (implies --dry-run)")
	flags.String("report-format", "json", "change report format: "+strings.Join(output.Formats(), ", "))
	flags.Bool("stats", false, "print statistics to stderr")

	// Refinement settings
	flags.Bool("normalize-cell-tags", false, "write header cells as th and data cells as td, always closed")
	flags.StringArray("phrase", nil, "extra boilerplate description treated as generic (repeatable)")
	flags.Bool("transcode-only", false, "only convert the document encoding, do not rewrite descriptions")

	// Input settings
	flags.String("max-size", "", "largest accepted input, e.g. 10MB (default 64MiB, 0 for unlimited)")
	flags.String("encoding", "", "input charset, overrides sniffing (e.g. windows-1252)")
	flags.Duration("timeout", 0, "request timeout for URL sources (default 30s)")

	return cmd
}

func runRefine(cmd *cobra.Command, v *viper.Viper, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	location := defaultDocument
	if len(args) > 0 {
		location = args[0]
	}

	settings, err := loadSettings(v)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	if phrases, _ := flags.GetStringArray("phrase"); len(phrases) > 0 {
		settings.Config = *settings.Config.Merge(&refiner.Config{GenericPhrases: phrases})
	}

	reportFormat, _ := flags.GetString("report-format")
	format, err := output.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	opts, err := settings.readOptions()
	if err != nil {
		return err
	}
	opts.Stdin = cmd.InOrStdin()
	opts.Timeout, _ = flags.GetDuration("timeout")

	doc, err := docio.Read(ctx, location, opts)
	if errors.Is(err, docio.ErrEmptyInput) {
		logger.Warn("nothing to refine", "source", location)
		return nil
	}
	if err != nil {
		logger.Error("failed to read document", "source", location, "error", err)
		return err
	}
	logger.Debug("document loaded", "source", location, "encoding", doc.Encoding, "bytes", doc.RawSize)

	transcodeOnly, _ := flags.GetBool("transcode-only")
	var tr refiner.Transformer = refiner.New(&settings.Config)
	if transcodeOnly {
		tr = refiner.NewNoop()
	}
	result, err := transform(tr, doc.Content)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		logger.Debug("refine warning", "warning", w.String())
	}
	logger.Info("refined document",
		"source", location,
		"transformer", tr.Name(),
		"rewritten", result.Stats.Rewritten,
		"kept", result.Stats.Kept,
		"warnings", len(result.Warnings))

	if showStats, _ := flags.GetBool("stats"); showStats {
		fmt.Fprintln(cmd.ErrOrStderr(), result.Stats.String())
	}

	check, _ := flags.GetBool("check")
	dryRun, _ := flags.GetBool("dry-run")
	if check || dryRun {
		if err := writeReport(cmd.OutOrStdout(), format, result.Changes); err != nil {
			return err
		}
		if check && result.Changed() {
			return fmt.Errorf("%w: %s would change", ErrCheckFailed,
				english.Plural(len(result.Changes), "description", ""))
		}
		return nil
	}

	dest, _ := flags.GetString("output")
	if dest == "" {
		dest = docio.Stdin
		if doc.Kind == docio.KindFile {
			dest = location
		}
	}

	// Transcoding converts to UTF-8; otherwise keep the source charset.
	encoding := doc.Encoding
	if transcodeOnly {
		encoding = docio.UTF8
	}

	if dest == docio.Stdin {
		if err := docio.Write(cmd.OutOrStdout(), result.Content, docio.WriteOptions{
			Encoding: encoding,
			BOM:      doc.HasBOM,
		}); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if flags.Changed("report-format") {
			return writeReport(cmd.ErrOrStderr(), format, result.Changes)
		}
		return nil
	}

	inPlace := dest == location && doc.Kind == docio.KindFile
	// Normalized cell tags change the document without recording a change.
	if inPlace && result.Content == doc.Content && !transcodeOnly {
		logger.Info("no changes, leaving document untouched", "path", dest)
	} else {
		backup := settings.Backup && inPlace
		if err := docio.WriteFile(dest, result.Content, docio.WriteOptions{
			Backup:   backup,
			Encoding: encoding,
			BOM:      doc.HasBOM,
			Mode:     doc.Mode,
		}); err != nil {
			logger.Error("failed to write document", "path", dest, "error", err)
			return err
		}
		logger.Info("wrote document", "path", dest, "backup", backup)
	}

	if flags.Changed("report-format") {
		return writeReport(cmd.OutOrStdout(), format, result.Changes)
	}
	return nil
}

// transform runs tr over content. Refiners report stats and changes;
// other transformers only produce content.
func transform(tr refiner.Transformer, content string) (*refiner.Result, error) {
	if r, ok := tr.(*refiner.Refiner); ok {
		result := r.RefineWithStats(content)
		return result, result.Error
	}
	out, err := tr.Refine(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tr.Name(), err)
	}
	stats := refiner.NewStats()
	stats.InputBytes = len(content)
	stats.OutputBytes = len(out)
	return &refiner.Result{Content: out, Stats: stats}, nil
}

func writeReport(w io.Writer, format output.Format, changes []refiner.Change) error {
	writer, err := output.NewWriter(w, format, output.WithUnwrapSingle(false))
	if err != nil {
		return err
	}
	records := make([]any, len(changes))
	for i, c := range changes {
		records[i] = c
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return writer.Close()
}
