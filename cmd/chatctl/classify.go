package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/engine"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func newClassifyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message: keywords, intents, sentiment, profanity and sector",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := engine.NewAnalyzer().Analyze(strings.Join(args, " "))
			return writeAnalysis(cmd, analysis, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")

	return cmd
}

func writeAnalysis(cmd *cobra.Command, a engine.Analysis, output string) error {
	out := cmd.OutOrStdout()
	switch output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case outputText:
		_, err := fmt.Fprintf(out, "intent:    %s\nintents:   %s\nsentiment: %s (%.2f)\nprofanity: %s\nsector:    %s\nkeywords:  %s\n",
			a.Primary, joinIntents(a.Intents), a.Sentiment, a.Score, profanityLabel(a), a.Sector, strings.Join(a.Keywords, ", "))
		return err
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func joinIntents(intents []domain.Intent) string {
	parts := make([]string, len(intents))
	for i, in := range intents {
		parts[i] = string(in)
	}
	return strings.Join(parts, ", ")
}

func profanityLabel(a engine.Analysis) string {
	if !a.Profanity.ContainsProfanity {
		return "none"
	}
	return a.Profanity.Level.String()
}
