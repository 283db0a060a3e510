package entities

// ReliabilityReport carries inter-rater agreement statistics for one run.
// With fewer than two usable raters every value is 0 and Undefined is set;
// the metrics are never silently reported as valid.
type ReliabilityReport struct {
	OverallAlpha      float64            `json:"overall_alpha"`
	PerCodeAlpha      map[string]float64 `json:"per_code_alpha"`
	AgreementRatios   map[string]float64 `json:"agreement_ratios_by_code"`
	MeanAgreement     float64            `json:"mean_agreement"`
	PairwiseAgreement map[string]float64 `json:"pairwise_agreement"`
	Interpretation    string             `json:"interpretation"`
	NUnits            int                `json:"n_units"`
	NRaters           int                `json:"n_raters"`
	Undefined         bool               `json:"undefined"`
}

// StatSummary describes the spread of one metric across several runs.
type StatSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ReliabilitySummary aggregates reliability across the runs of a study.
// Undefined runs are excluded; NRuns counts only the runs that contributed.
type ReliabilitySummary struct {
	Alpha          StatSummary `json:"alpha"`
	Agreement      StatSummary `json:"agreement"`
	Interpretation string      `json:"interpretation"`
	NRuns          int         `json:"n_runs"`
	Undefined      bool        `json:"undefined"`
}
