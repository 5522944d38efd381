package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/descrefine/internal/docio"
	"github.com/jmylchreest/descrefine/internal/logger"
	"github.com/jmylchreest/descrefine/internal/output"
	"github.com/jmylchreest/descrefine/pkg/inspect"
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file|-|url]",
		Short: "List the tables in a schema document",
		Long: `Inspect catalogs every table in the document: the section it belongs to,
its header columns, and how many descriptions refine would rewrite.
Nothing is written.

Examples:
  descrefine inspect
  descrefine inspect schema.html --format yaml
  descrefine inspect https://example.com/schema.html --format jsonl`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(v, cmd, map[string]string{
				"max_size": "max-size",
				"encoding": "encoding",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, v, args)
		},
	}

	flags := cmd.Flags()
	flags.String("format", "text", "output format: text, "+strings.Join(output.Formats(), ", "))
	flags.String("max-size", "", "largest accepted input, e.g. 10MB (default 64MiB, 0 for unlimited)")
	flags.String("encoding", "", "input charset, overrides sniffing (e.g. windows-1252)")
	flags.Duration("timeout", 0, "request timeout for URL sources (default 30s)")

	return cmd
}

func runInspect(cmd *cobra.Command, v *viper.Viper, args []string) error {
	flags := cmd.Flags()

	location := defaultDocument
	if len(args) > 0 {
		location = args[0]
	}

	formatStr, _ := flags.GetString("format")
	var format output.Format
	if formatStr != "text" {
		f, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		format = f
	}

	settings, err := loadSettings(v)
	if err != nil {
		return err
	}
	opts, err := settings.readOptions()
	if err != nil {
		return err
	}
	opts.Stdin = cmd.InOrStdin()
	opts.Timeout, _ = flags.GetDuration("timeout")

	doc, err := docio.Read(cmd.Context(), location, opts)
	if err != nil && !errors.Is(err, docio.ErrEmptyInput) {
		logger.Error("failed to read document", "source", location, "error", err)
		return err
	}

	catalog, err := inspect.InspectString(doc.Content, &settings.Config)
	if err != nil {
		return err
	}
	logger.Debug("inspected document", "source", location, "tables", len(catalog.Tables), "pending", catalog.Pending())

	if format == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), catalog.String())
		return err
	}

	w, err := output.NewWriter(cmd.OutOrStdout(), format, output.WithUnwrapSingle(false))
	if err != nil {
		return err
	}
	if err := w.WriteAll(catalog.Records()); err != nil {
		return err
	}
	return w.Close()
}
