package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/revops-cli/internal/model"
	"github.com/sells-group/revops-cli/internal/rollup"
)

var (
	rollupReps []string
	rollupJSON bool
)

var rollupCmd = &cobra.Command{
	Use:   "rollup <period>",
	Short: "Run the quarterly rollup and print KPI rows",
	Long:  "Rolls deal facts up through rep, manager, VP and company levels for one quarter (e.g. 2025Q2) and prints the derived KPIs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := engine.Run(ctx, args[0], scopeFromFlags(rollupReps))
		if err != nil {
			return eris.Wrap(err, "rollup")
		}

		if rollupJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		formatKPIs(os.Stdout, res.KPIs)
		if len(res.CyclicReps) > 0 {
			fmt.Fprintf(os.Stderr, "warning: hierarchy cycle involving %v; affected reps rolled up as %s\n",
				res.CyclicReps, model.UnassignedEntity)
		}
		return nil
	},
}

func init() {
	rollupCmd.Flags().StringSliceVar(&rollupReps, "rep", nil, "limit to specific rep ids (repeatable)")
	rollupCmd.Flags().BoolVar(&rollupJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(rollupCmd)
}

func scopeFromFlags(reps []string) rollup.Scope {
	if len(reps) == 0 {
		return rollup.All
	}
	return rollup.Scope{RepIDs: reps}
}

// usd renders an amount as grouped dollars, e.g. $1,250,000.
var usd = message.NewPrinter(language.AmericanEnglish)

func dollars(v float64) string {
	return usd.Sprintf("$%.0f", v)
}

func pct(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *p*100)
}

func formatKPIs(out io.Writer, rows []model.KPIRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LEVEL\tENTITY\tQUOTA\tWON\tLOST\tCOMMIT\tPIPELINE\tATTAIN\tWIN_RATE\tPARTNER")
	_, _ = fmt.Fprintln(w, "-----\t------\t-----\t---\t----\t------\t--------\t------\t--------\t-------")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Level,
			r.EntityID,
			dollars(r.QuotaAmount),
			dollars(r.WonAmount),
			dollars(r.LostAmount),
			dollars(r.CommitAmount),
			dollars(r.PipelineAmount),
			pct(r.Attainment),
			pct(r.WinRate),
			pct(r.PartnerContribution),
		)
	}
	_ = w.Flush()
}
