package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"ticket_content_improver/improver"
	"ticket_content_improver/richtext"
)

var (
	flagFile          string
	flagDescriptionMD string
	flagImproveMock   bool
)

var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Improve one ticket and print the result as JSON",
	Long: `Improve reads a ticket (YAML or JSON) and prints the improved description
and acceptance criteria.

Examples:
  ticket-improver improve --file ticket.yaml
  ticket-improver improve --file ticket.json --description-md notes.md --mock`,
	Args: cobra.NoArgs,
	RunE: runImprove,
}

func init() {
	rootCmd.AddCommand(improveCmd)
	improveCmd.Flags().StringVarP(&flagFile, "file", "f", "", "ticket file (yaml or json)")
	improveCmd.Flags().StringVar(&flagDescriptionMD, "description-md", "", "markdown file used as the description")
	improveCmd.Flags().BoolVar(&flagImproveMock, "mock", false, "use the offline echo client instead of a real model")
}

func runImprove(cmd *cobra.Command, _ []string) error {
	if flagFile == "" {
		return errors.New("--file is required")
	}
	in, err := readInput(flagFile)
	if err != nil {
		return err
	}
	if flagDescriptionMD != "" {
		md, err := os.ReadFile(flagDescriptionMD)
		if err != nil {
			return err
		}
		html, err := mdToHTML(md)
		if err != nil {
			return err
		}
		in.Description = richtext.NewRichText(html)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	im, err := buildImprover(cfg, flagImproveMock)
	if err != nil {
		return err
	}
	res, err := im.Improve(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("improve ticket: %w (retryable=%t)", err, improver.IsRetryable(err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readInput(path string) (improver.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return improver.Input{}, err
	}
	var in improver.Input
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &in)
	} else {
		err = yaml.Unmarshal(data, &in)
	}
	if err != nil {
		return improver.Input{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

func mdToHTML(md []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
