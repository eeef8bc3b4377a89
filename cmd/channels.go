package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/revops-cli/internal/model"
	"github.com/sells-group/revops-cli/internal/rollup"
)

var channelsJSON bool

var channelsCmd = &cobra.Command{
	Use:   "channels <period>",
	Short: "Score sales motions for one quarter",
	Long:  "Computes the composite channel scores (WIC for every motion, PQS and CEI for partners) for one quarter.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := engine.Run(ctx, args[0], rollup.All)
		if err != nil {
			return eris.Wrap(err, "channels")
		}

		if channelsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Scores)
		}

		if len(res.Scores) == 0 {
			fmt.Fprintln(os.Stderr, "No motions found for period.")
			return nil
		}
		formatScores(os.Stdout, res.Scores)
		return nil
	},
}

func init() {
	channelsCmd.Flags().BoolVar(&channelsJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(channelsCmd)
}

func score(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *p)
}

func formatScores(out io.Writer, rows []model.ScoreRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MOTION\tWIC\tBAND\tPQS\tCEI\tSTATUS\tWON\tPIPELINE\tDEALS")
	_, _ = fmt.Fprintln(w, "------\t---\t----\t---\t---\t------\t---\t--------\t-----")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Motion,
			r.WIC,
			r.WICBand,
			score(r.PQS),
			score(r.CEI),
			r.CEIStatus,
			dollars(r.Inputs.WonAmount),
			dollars(r.Inputs.OpenPipeline),
			r.Inputs.DealCount,
		)
	}
	_ = w.Flush()
}
