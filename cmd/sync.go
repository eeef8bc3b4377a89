package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revops-cli/internal/model"
	"github.com/sells-group/revops-cli/pkg/salesforce"
)

var syncPeriod string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync opportunities and the user hierarchy from Salesforce",
	Long:  "Pulls opportunities touching the given quarter plus the full user directory from Salesforce and upserts them into the store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		p, err := model.ParsePeriod(syncPeriod)
		if err != nil {
			return eris.Wrap(err, "sync")
		}

		sf, err := initSalesforce()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		opps, err := salesforce.FetchOpportunities(ctx, sf, p.Start, p.End)
		if err != nil {
			return err
		}
		users, err := salesforce.FetchUsers(ctx, sf)
		if err != nil {
			return err
		}

		deals, err := st.UpsertDeals(ctx, mapOpportunities(opps))
		if err != nil {
			return eris.Wrap(err, "sync deals")
		}
		reps, err := st.UpsertReps(ctx, mapUsers(users))
		if err != nil {
			return eris.Wrap(err, "sync reps")
		}

		zap.L().Info("sync complete",
			zap.String("period", p.Key),
			zap.Int64("deals", deals),
			zap.Int64("reps", reps),
		)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncPeriod, "period", "", "quarter to sync, e.g. 2025Q2 (required)")
	_ = syncCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(syncCmd)
}

// sfTimeLayouts covers the datetime shapes the REST API returns.
var sfTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

func parseSFTime(s string) (time.Time, bool) {
	for _, layout := range sfTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func mapOpportunities(opps []salesforce.Opportunity) []model.Deal {
	deals := make([]model.Deal, 0, len(opps))
	for _, o := range opps {
		created, ok := parseSFTime(o.CreatedDate)
		if !ok {
			zap.L().Warn("skipping opportunity with bad created date",
				zap.String("id", o.ID),
				zap.String("created", o.CreatedDate),
			)
			continue
		}

		d := model.Deal{
			ID:          o.ID,
			RepID:       o.OwnerID,
			Amount:      o.Amount,
			Stage:       o.StageName,
			Partner:     o.Partner,
			CreatedAt:   created,
			HealthScore: o.HealthScore,
		}
		// CloseDate is set on open opportunities too; only a closed one has
		// actually been decided.
		if o.IsClosed {
			if closed, ok := parseSFTime(o.CloseDate); ok {
				d.ClosedAt = &closed
			}
		}
		deals = append(deals, d)
	}
	return deals
}

func mapUsers(users []salesforce.User) []model.RepEntry {
	reps := make([]model.RepEntry, 0, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		reps = append(reps, model.RepEntry{
			ID:       u.ID,
			Name:     u.Name,
			ParentID: u.ManagerID,
			Active:   u.IsActive,
		})
	}
	return reps
}
