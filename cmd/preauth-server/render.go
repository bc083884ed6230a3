package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tavi/preauth/internal/domain/application"
	"github.com/tavi/preauth/internal/domain/casefile"
)

type renderOptions struct {
	casePath    string
	summaryPath string
	summaryText string
	signedPath  string
	outPath     string
	surgeon     bool
}

// renderCmd produces the documents from files, without a database or the
// summary model.
func renderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an application document from a case JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			path, f, err := renderFile(cmd, opts, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes", path, len(f.Data))
			if f.Sections > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d sections, %d degraded images", f.Sections, len(f.Degradations))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.casePath, "case", "", "Path to the case JSON file")
	cmd.Flags().StringVar(&opts.summaryPath, "summary", "", "Path to a text file with the summary paragraph")
	cmd.Flags().StringVar(&opts.summaryText, "summary-text", "", "Summary paragraph given inline")
	cmd.Flags().StringVar(&opts.signedPath, "signed", "", "Path to the scanned signed determination image")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Output file (defaults to the download name in the current directory)")
	cmd.Flags().BoolVar(&opts.surgeon, "surgeon-assessment", false, "Render the two-surgeon determination form instead")
	cmd.MarkFlagRequired("case")
	return cmd
}

func renderFile(cmd *cobra.Command, opts renderOptions, logger zerolog.Logger) (string, *application.File, error) {
	raw, err := os.ReadFile(opts.casePath)
	if err != nil {
		return "", nil, fmt.Errorf("read case: %w", err)
	}
	var c casefile.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", nil, fmt.Errorf("decode case %s: %w", opts.casePath, err)
	}

	summaryText := opts.summaryText
	if opts.summaryPath != "" {
		b, err := os.ReadFile(opts.summaryPath)
		if err != nil {
			return "", nil, fmt.Errorf("read summary: %w", err)
		}
		summaryText = string(b)
	}
	if strings.TrimSpace(summaryText) == "" {
		summaryText = c.GeneratedSummary
	}

	var signed casefile.Image
	if opts.signedPath != "" {
		if signed, err = os.ReadFile(opts.signedPath); err != nil {
			return "", nil, fmt.Errorf("read signed document: %w", err)
		}
	}

	svc := application.NewService(nil, nil, logger)
	var f *application.File
	if opts.surgeon {
		f, err = svc.SurgeonAssessment(application.PatientInfo{
			Name:        c.Patient.Name,
			ChartNumber: c.Patient.ChartNumber,
		}, summaryText)
	} else {
		f, err = svc.Application(cmd.Context(), &c, summaryText, signed)
	}
	if err != nil {
		return "", nil, err
	}

	out := opts.outPath
	if out == "" {
		out = filepath.Clean(f.Name)
	}
	if err := os.WriteFile(out, f.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write %s: %w", out, err)
	}
	return out, f, nil
}
