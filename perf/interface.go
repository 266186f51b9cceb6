package perf

// ChangeDetector types calculate change points.
type ChangeDetector interface {
	DetectChanges([]float64) ([]ChangePoint, error)
}

// Scorer types fit a location and scale to a reference sample. The returned
// ScoreFit standardizes and tests new values against that sample.
type Scorer interface {
	Fit([]float64) (ScoreFit, error)
	Info() AlgorithmInfo
}

type ChangePoint struct {
	Index int           `json:"index"`
	Info  AlgorithmInfo `json:"algorithm"`
}

type AlgorithmInfo struct {
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Options []AlgorithmOption `json:"options"`
}

type AlgorithmOption struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}
