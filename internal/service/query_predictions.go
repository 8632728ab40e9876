package service

import (
	"endurance/internal/analysis"
)

// PredictionDisplay represents a formatted prediction for display
type PredictionDisplay struct {
	TargetLabel   string  // "5K", "10K", "Half Marathon", "Marathon"
	DistanceKm    float64 // for pace conversion in the UI
	PredictedTime string  // "M:SS" or "H:MM:SS"
	PaceSecPerKm  float64
	VDOTTime      string // Daniels table equivalent, empty if unavailable
}

// PredictionsData contains all data needed for the predictions screen
type PredictionsData struct {
	Forecast analysis.PerformanceForecast
	Fitness  analysis.FitnessMetrics

	Predictions []PredictionDisplay
	VDOT        float64
	VDOTLabel   string // "Advanced Recreational", "Competitive", etc.
	Exponent    float64
	SourceDate  string // "Oct 15, 2025"
	SourceTime  string // time of the reference effort
	SourceKm    float64

	HasRunning bool
	HasCycling bool
}

// GetPredictions forecasts race times and power targets from recent
// activities, with the current CTL/ATL as the form input
func (q *QueryService) GetPredictions() (*PredictionsData, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}

	fitness := q.currentFitness(ds)
	forecast := analysis.PredictPerformance(ds.acts, fitness.CTL, fitness.ATL, q.now(), q.profile)

	data := &PredictionsData{
		Forecast:   forecast,
		Fitness:    fitness,
		HasRunning: forecast.Running != nil,
		HasCycling: forecast.Cycling != nil,
	}
	if forecast.Running == nil {
		return data, nil
	}

	run := forecast.Running
	data.VDOT = run.VDOT
	data.VDOTLabel = run.VDOTLabel
	data.Exponent = run.Exponent
	data.SourceKm = run.Reference.DistanceKm
	data.SourceTime = formatDuration(run.Reference.TimeS)
	for _, a := range ds.acts {
		if a.ID == run.Reference.ActivityID {
			data.SourceDate = a.StartDate.Format("Jan 02, 2006")
			break
		}
	}

	for _, p := range run.Predictions {
		d := PredictionDisplay{
			TargetLabel:   p.Target.Label,
			DistanceKm:    p.Target.DistanceKm,
			PredictedTime: formatDuration(p.Seconds),
			PaceSecPerKm:  p.PaceSecPerKm,
		}
		if p.VDOTSeconds > 0 {
			d.VDOTTime = formatDuration(float64(p.VDOTSeconds))
		}
		data.Predictions = append(data.Predictions, d)
	}
	return data, nil
}
