package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/revops-cli/internal/model"
)

// Sheet names expected in a revenue-ops workbook. Deals is mandatory; Quotas
// and Reps are optional.
const (
	SheetDeals  = "Deals"
	SheetQuotas = "Quotas"
	SheetReps   = "Reps"
)

// Workbook holds the records parsed from one workbook file.
type Workbook struct {
	Deals  []model.Deal
	Quotas []model.Quota
	Reps   []model.RepEntry

	// Skipped counts rows dropped because a required field failed to parse.
	Skipped int
}

// LoadWorkbook parses a CRM export workbook. Malformed rows are logged and
// skipped rather than failing the whole import.
func LoadWorkbook(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open workbook")
	}

	wb := &Workbook{}

	dealRows, err := sheetRows(f, SheetDeals)
	if err != nil {
		return nil, err
	}
	wb.Deals = parseDeals(dealRows, &wb.Skipped)

	if quotaRows, err := sheetRows(f, SheetQuotas); err == nil {
		wb.Quotas = parseQuotas(quotaRows, &wb.Skipped)
	}
	if repRows, err := sheetRows(f, SheetReps); err == nil {
		wb.Reps = parseReps(repRows, &wb.Skipped)
	}

	zap.L().Info("workbook loaded",
		zap.String("path", path),
		zap.Int("deals", len(wb.Deals)),
		zap.Int("quotas", len(wb.Quotas)),
		zap.Int("reps", len(wb.Reps)),
		zap.Int("skipped", wb.Skipped),
	)
	return wb, nil
}

func parseDeals(rows [][]string, skipped *int) []model.Deal {
	if len(rows) == 0 {
		return nil
	}
	idx := columnIndex(rows[0])

	var deals []model.Deal
	for i, row := range rows[1:] {
		id := cellAt(row, idx, "dealid", "id")
		if id == "" {
			continue // blank trailing rows are common in exports
		}

		created, err := parseDate(cellAt(row, idx, "createdat", "created", "createddate"))
		if err != nil {
			zap.L().Warn("skipping deal row", zap.Int("row", i+2), zap.Error(err))
			*skipped++
			continue
		}
		amount, err := parseFloat(cellAt(row, idx, "amount"))
		if err != nil {
			zap.L().Warn("skipping deal row", zap.Int("row", i+2), zap.Error(err))
			*skipped++
			continue
		}
		health, err := parseFloat(cellAt(row, idx, "healthscore", "health"))
		if err != nil {
			health = 0
		}

		d := model.Deal{
			ID:          id,
			RepID:       cellAt(row, idx, "repid", "ownerid", "rep"),
			Amount:      amount,
			Stage:       cellAt(row, idx, "stage", "stagename"),
			Partner:     cellAt(row, idx, "partner", "partnername", "channel"),
			CreatedAt:   created,
			HealthScore: health,
		}
		if raw := cellAt(row, idx, "closedat", "closed", "closedate"); raw != "" {
			if closed, err := parseDate(raw); err == nil {
				d.ClosedAt = &closed
			}
		}
		deals = append(deals, d)
	}
	return deals
}

func parseQuotas(rows [][]string, skipped *int) []model.Quota {
	if len(rows) == 0 {
		return nil
	}
	idx := columnIndex(rows[0])

	var quotas []model.Quota
	for i, row := range rows[1:] {
		entity := cellAt(row, idx, "entityid", "repid", "entity")
		period := cellAt(row, idx, "periodkey", "period", "quarter")
		if entity == "" && period == "" {
			continue
		}

		amount, err := parseFloat(cellAt(row, idx, "amount", "quota"))
		if err != nil {
			zap.L().Warn("skipping quota row", zap.Int("row", i+2), zap.Error(err))
			*skipped++
			continue
		}
		carry, err := parseFloat(cellAt(row, idx, "carryforward", "carry"))
		if err != nil {
			carry = 0
		}
		adjusted, err := parseFloat(cellAt(row, idx, "adjusted", "adjustedamount"))
		if err != nil {
			adjusted = 0
		}

		quotas = append(quotas, model.Quota{
			EntityID:     entity,
			PeriodKey:    period,
			Amount:       amount,
			CarryForward: carry,
			Adjusted:     adjusted,
		})
	}
	return quotas
}

func parseReps(rows [][]string, skipped *int) []model.RepEntry {
	if len(rows) == 0 {
		return nil
	}
	idx := columnIndex(rows[0])

	var reps []model.RepEntry
	for _, row := range rows[1:] {
		id := cellAt(row, idx, "repid", "id")
		if id == "" {
			continue
		}
		reps = append(reps, model.RepEntry{
			ID:       id,
			Name:     cellAt(row, idx, "name", "repname"),
			ParentID: cellAt(row, idx, "managerid", "parentid", "manager"),
			Active:   parseBool(cellAt(row, idx, "active", "isactive")),
		})
	}
	return reps
}
