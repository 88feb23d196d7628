// pkg/api/report_v1.go
package api

// ReportV1 is the stable JSON schema for a calibration run report.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	Facility string `json:"facility"`
	Template string `json:"template"`
	Unit     string `json:"unit"`

	Samples  []SampleV1  `json:"samples"`
	Pending  []SampleRef `json:"pending,omitempty"`
	Failures []FailureV1 `json:"failures,omitempty"`

	Rods []RodParamsV1 `json:"rods,omitempty"`
}

// SampleRef names one (rod, height) point of the sweep.
type SampleRef struct {
	Rod    string `json:"rod"`
	Height int    `json:"height"`
}

// SampleV1 is one parsed simulator result.
type SampleV1 struct {
	Rod    string  `json:"rod"`
	Height int     `json:"height"`
	Keff   float64 `json:"keff"`
	Unc    float64 `json:"unc"`
}

// FailureV1 is one sample the sweep could not complete.
type FailureV1 struct {
	Rod    string `json:"rod"`
	Height int    `json:"height"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error"`
}

// RodParamsV1 is the per-rod operational summary, in the facility's
// reporting units (dollars, inches, minutes).
type RodParamsV1 struct {
	Rod               string  `json:"rod"`
	TotalWorth        float64 `json:"worth_dollars"`
	MaxDiffPerPercent float64 `json:"max_diff_dollars_per_percent"`
	MaxDiffPerInch    float64 `json:"max_diff_dollars_per_inch"`
	AdditionRate      float64 `json:"addition_rate_dollars_per_sec"`
	MaxMotorSpeed     float64 `json:"max_motor_speed_in_per_min"`
}
