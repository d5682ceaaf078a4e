package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/records"
)

// ExportFileName is used when --out names a directory.
const ExportFileName = "anxiety-journal-data.json"

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// ExportResult reports where an export was written.
type ExportResult struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal as JSON",
		Long: `Write the whole journal as indented JSON.

Without --out the JSON goes to stdout. When --out is a directory the file
is named ` + ExportFileName + `.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file or directory")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openUnlocked(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if opts.Out == "" {
		if err := s.records.Export(ctx, cmd.OutOrStdout()); err != nil {
			return f.Fail(ExitFailure, ErrCodeStorage, "export failed", err)
		}
		return nil
	}

	path := opts.Out
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ExportFileName)
	}

	var buf bytes.Buffer
	if err := s.records.Export(ctx, &buf); err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "export failed", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return f.Fail(ExitCommandError, ErrCodeFile, "failed to write export file", err)
	}

	n := len(s.records.Load(ctx).Entries)
	opts.Logger().Info("journal exported", "path", path, "entries", n)

	if f.Format == "json" {
		return f.Success(ExportResult{Path: path, Entries: n})
	}
	return f.Success(fmt.Sprintf("Exported %d entries to %s", n, path))
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the journal with an exported JSON file",
		Long: `Replace the whole journal with the contents of an exported file.

The file must be a JSON object with an "entries" array; every entry needs
an id, and ids must be unique. Anything else is rejected and the journal
is left unchanged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, file string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	data, err := os.ReadFile(file)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeFile, "failed to read import file", err)
	}

	s, err := openUnlocked(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.records.Import(cmd.Context(), bytes.NewReader(data))
	if errors.Is(err, records.ErrInvalidImport) {
		return f.Fail(ExitFailure, ErrCodeInvalidImport, "invalid import file", err)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "import failed", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]int{"entries": len(doc.Entries)})
	}
	return f.Success(fmt.Sprintf("Imported %d entries.", len(doc.Entries)))
}
