package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var analyzeFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single opportunity payload from a file or stdin",
	Long:  "Runs the full analysis pipeline once for a JSON payload (flat or structured shape) and prints the response envelope.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		ctx := cmd.Context()

		var body []byte
		var err error
		if analyzeFile == "" || analyzeFile == "-" {
			body, err = io.ReadAll(os.Stdin)
		} else {
			body, err = os.ReadFile(analyzeFile)
		}
		if err != nil {
			return eris.Wrap(err, "read payload")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		resp := env.Pipeline.Process(ctx, body)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "payload file (default: stdin)")
	rootCmd.AddCommand(analyzeCmd)
}
