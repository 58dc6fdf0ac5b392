package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

var (
	runText   string
	runFile   string
	runFormat string
	runPages  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover stakeholders for a project description",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := projectText(runText, runFile)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, cfg, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		if isPDFPath(runFile) {
			data, err := os.ReadFile(runFile)
			if err != nil {
				return eris.Wrap(err, "read project file")
			}
			if text, err = env.Converter.ExtractText(ctx, data); err != nil {
				return eris.Wrap(err, "extract project text")
			}
			text = strings.Join(strings.Fields(text), " ")
		}

		result, runErr := env.Pipeline.Run(ctx, text)
		if runErr != nil {
			zap.L().Error("run failed", zap.Error(runErr))
		}
		if !runPages {
			result.Pages = nil
		}
		if err := writeResult(cmd.OutOrStdout(), result, runFormat); err != nil {
			return err
		}
		return runErr
	},
}

// projectText returns the project description from --text, or from --file
// when it is a plain text file. PDF files are converted by the caller.
func projectText(text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", eris.New("use either --text or --file, not both")
	case text != "":
		return text, nil
	case file == "":
		return "", eris.New("one of --text or --file is required")
	case isPDFPath(file):
		return "", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", eris.Wrap(err, "read project file")
	}
	return string(data), nil
}

func isPDFPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".pdf")
}

func writeResult(w io.Writer, result *model.RunResult, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "close yaml encoder")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func init() {
	runCmd.Flags().StringVar(&runText, "text", "", "project description")
	runCmd.Flags().StringVar(&runFile, "file", "", "file holding the project description (.txt or .pdf)")
	runCmd.Flags().StringVar(&runFormat, "format", "json", "output format: json or yaml")
	runCmd.Flags().BoolVar(&runPages, "pages", false, "include per-page records in the output")
	rootCmd.AddCommand(runCmd)
}
