package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revops-cli/internal/fetcher"
)

var importWorkbookPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import deals, quotas and reps from a workbook export",
	Long:  "Loads a CRM export workbook (Deals sheet required; Quotas and Reps optional) into the store. Existing records with the same ids are replaced.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		wb, err := fetcher.LoadWorkbook(importWorkbookPath)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		deals, err := st.UpsertDeals(ctx, wb.Deals)
		if err != nil {
			return eris.Wrap(err, "import deals")
		}
		quotas, err := st.UpsertQuotas(ctx, wb.Quotas)
		if err != nil {
			return eris.Wrap(err, "import quotas")
		}
		reps, err := st.UpsertReps(ctx, wb.Reps)
		if err != nil {
			return eris.Wrap(err, "import reps")
		}

		zap.L().Info("import complete",
			zap.String("workbook", importWorkbookPath),
			zap.Int64("deals", deals),
			zap.Int64("quotas", quotas),
			zap.Int64("reps", reps),
			zap.Int("skipped", wb.Skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importWorkbookPath, "workbook", "", "path to XLSX workbook (required)")
	_ = importCmd.MarkFlagRequired("workbook")
	rootCmd.AddCommand(importCmd)
}
