package channel

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the component weights for the WIC and PQS composites.
// WIC weights must sum to 1; PQS positive weights likewise, with the
// velocity penalty expressed as a positive number that is subtracted.
type Weights struct {
	WIC struct {
		GrowthCapacity     float64 `yaml:"growth_capacity"`
		WinQuality         float64 `yaml:"win_quality"`
		VelocityEfficiency float64 `yaml:"velocity_efficiency"`
		DealEconomics      float64 `yaml:"deal_economics"`
	} `yaml:"wic"`
	PQS struct {
		WinRate         float64 `yaml:"win_rate"`
		DealSize        float64 `yaml:"deal_size"`
		Confidence      float64 `yaml:"confidence"`
		VelocityPenalty float64 `yaml:"velocity_penalty"`
	} `yaml:"pqs"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	var w Weights
	w.WIC.GrowthCapacity = 0.35
	w.WIC.WinQuality = 0.30
	w.WIC.VelocityEfficiency = 0.20
	w.WIC.DealEconomics = 0.15
	w.PQS.WinRate = 0.40
	w.PQS.DealSize = 0.25
	w.PQS.Confidence = 0.20
	w.PQS.VelocityPenalty = 0.15
	return w
}

// LoadWeights reads a weights override file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrap(err, "channel: read weights file")
	}
	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, eris.Wrap(err, "channel: parse weights file")
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate checks weight signs and sums (tolerating float slack).
func (w Weights) Validate() error {
	var errs []string

	all := map[string]float64{
		"wic.growth_capacity":     w.WIC.GrowthCapacity,
		"wic.win_quality":         w.WIC.WinQuality,
		"wic.velocity_efficiency": w.WIC.VelocityEfficiency,
		"wic.deal_economics":      w.WIC.DealEconomics,
		"pqs.win_rate":            w.PQS.WinRate,
		"pqs.deal_size":           w.PQS.DealSize,
		"pqs.confidence":          w.PQS.Confidence,
		"pqs.velocity_penalty":    w.PQS.VelocityPenalty,
	}
	for name, v := range all {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	wicSum := w.WIC.GrowthCapacity + w.WIC.WinQuality + w.WIC.VelocityEfficiency + w.WIC.DealEconomics
	if math.Abs(wicSum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("wic weights should sum to 1, got %.3f", wicSum))
	}
	pqsSum := w.PQS.WinRate + w.PQS.DealSize + w.PQS.Confidence
	if math.Abs(pqsSum-0.85) > 0.01 {
		errs = append(errs, fmt.Sprintf("pqs positive weights should sum to 0.85, got %.3f", pqsSum))
	}

	if len(errs) > 0 {
		return eris.Errorf("channel: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
