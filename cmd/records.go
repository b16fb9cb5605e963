package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-agent/internal/model"
)

var recordsLimit int

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and import stored analysis records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analysis records",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("records"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListRecent(ctx, recordsLimit)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <opportunity-id>",
	Short: "Print the latest analysis for an opportunity as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("records"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetLatestAnalysis(ctx, args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return eris.Errorf("no analysis found for opportunity %s", args[0])
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return eris.Wrap(err, "records: marshal record")
		}
		fmt.Println(string(out))
		return nil
	},
}

var recordsByTowerCmd = &cobra.Command{
	Use:   "by-tower <tower>",
	Short: "List records whose analysis requires a tower",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("records"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListByTower(ctx, args[0], recordsLimit)
		if err != nil {
			return err
		}
		printRecords(recs)
		return nil
	},
}

var recordsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Bulk-load exported analysis records, skipping existing ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("records"); err != nil {
			return err
		}
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "records: read import file")
		}
		var recs []model.AnalysisRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return eris.Wrap(err, "records: parse import file")
		}
		if len(recs) == 0 {
			zap.L().Info("import file has no records")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		inserted, err := st.ImportRecords(ctx, recs)
		if err != nil {
			return err
		}
		zap.L().Info("import complete",
			zap.Int("records", len(recs)),
			zap.Int64("inserted", inserted),
			zap.Int64("skipped", int64(len(recs))-inserted),
		)
		return nil
	},
}

func init() {
	recordsCmd.PersistentFlags().IntVar(&recordsLimit, "limit", 50, "max records to list")
	recordsCmd.AddCommand(recordsListCmd, recordsGetCmd, recordsByTowerCmd, recordsImportCmd)
	rootCmd.AddCommand(recordsCmd)
}

func printRecords(recs []model.AnalysisRecord) {
	if len(recs) == 0 {
		fmt.Println("no records found")
		return
	}
	for _, rec := range recs {
		fmt.Printf("%s  %-12s  %s  %s\n",
			rec.ProcessedAt.Format("2006-01-02 15:04:05"),
			rec.Status,
			rec.OpportunityID,
			rec.OpportunityName,
		)
	}
	fmt.Printf("%d record(s)\n", len(recs))
}
