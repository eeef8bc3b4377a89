package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/revops-cli/internal/compare"
	"github.com/sells-group/revops-cli/internal/rollup"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare <period>",
	Short: "Quarter-over-quarter deltas against the prior quarter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cmp, err := engine.Compare(ctx, args[0], rollup.All)
		if err != nil {
			return eris.Wrap(err, "compare")
		}

		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cmp)
		}

		fmt.Fprintf(os.Stdout, "%s vs %s\n\n", cmp.Current.Period.Key, cmp.Previous.Period.Key)
		formatKPIDeltas(os.Stdout, cmp.KPIDeltas)
		if len(cmp.ScoreDeltas) > 0 {
			fmt.Fprintln(os.Stdout)
			formatScoreDeltas(os.Stdout, cmp.ScoreDeltas)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(compareCmd)
}

func signedDollars(v float64) string {
	if v < 0 {
		return "-" + dollars(-v)
	}
	return "+" + dollars(v)
}

func signedPct(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1fpp", *p*100)
}

func formatKPIDeltas(out io.Writer, deltas []compare.KPIDelta) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LEVEL\tENTITY\tWON\tLOST\tPIPELINE\tATTAIN\tWIN_RATE")
	_, _ = fmt.Fprintln(w, "-----\t------\t---\t----\t--------\t------\t--------")

	for _, d := range deltas {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Level,
			d.EntityID,
			signedDollars(d.WonAmount),
			signedDollars(d.LostAmount),
			signedDollars(d.PipelineAmount),
			signedPct(d.Attainment),
			signedPct(d.WinRate),
		)
	}
	_ = w.Flush()
}

func formatScoreDeltas(out io.Writer, deltas []compare.ScoreDelta) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MOTION\tWIC\tPQS\tCEI")
	_, _ = fmt.Fprintln(w, "------\t---\t---\t---")

	for _, d := range deltas {
		pqs, cei := "-", "-"
		if d.PQS != nil {
			pqs = fmt.Sprintf("%+.1f", *d.PQS)
		}
		if d.CEI != nil {
			cei = fmt.Sprintf("%+.1f", *d.CEI)
		}
		_, _ = fmt.Fprintf(w, "%s\t%+.1f\t%s\t%s\n", d.Motion, d.WIC, pqs, cei)
	}
	_ = w.Flush()
}
