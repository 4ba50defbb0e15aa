package models

import "encoding/json"

type Prediction struct {
	Crop            string  `json:"crop,omitempty"`
	Disease         string  `json:"disease"`
	Confidence      float64 `json:"confidence"`
	SeverityPercent float64 `json:"severity_percent"`
	Stage           string  `json:"stage"`
	IsHealthy       bool    `json:"is_healthy,omitempty"`
}

type Pesticide struct {
	Name        string  `json:"name"`
	Dosage      string  `json:"dosage,omitempty"`
	Frequency   string  `json:"frequency,omitempty"`
	CostPerUnit float64 `json:"cost_per_unit,omitempty"`
	IsOrganic   bool    `json:"is_organic,omitempty"`
	Warnings    string  `json:"warnings,omitempty"`
}

// DiagnosisResult is the body of a successful diagnosis/detect call.
// Sections whose shape varies by model version are kept as raw JSON; Raw
// holds the full body so nothing the server sent is lost.
type DiagnosisResult struct {
	DiagnosisID              *int64            `json:"diagnosis_id,omitempty"`
	Prediction               Prediction        `json:"prediction"`
	DiseaseInfo              json.RawMessage   `json:"disease_info,omitempty"`
	PesticideRecommendations []Pesticide       `json:"pesticide_recommendations,omitempty"`
	WeatherAdvice            json.RawMessage   `json:"weather_advice,omitempty"`
	VoiceFile                string            `json:"voice_file,omitempty"`
	ImageQuality             json.RawMessage   `json:"image_quality,omitempty"`
	QualityWarning           string            `json:"quality_warning,omitempty"`
	Language                 string            `json:"language,omitempty"`
	UITranslations           map[string]string `json:"ui_translations,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// DetectRequest carries the form fields sent next to the image.
type DetectRequest struct {
	Crop      string
	Language  string
	Latitude  *float64
	Longitude *float64
}

// DiagnosisSummary is one row of diagnosis/history.
type DiagnosisSummary struct {
	ID              int64   `json:"id"`
	Crop            string  `json:"crop"`
	Disease         string  `json:"disease"`
	Confidence      float64 `json:"confidence"`
	SeverityPercent float64 `json:"severity_percent"`
	Stage           string  `json:"stage"`
	CreatedAt       string  `json:"created_at"`
}

type DiagnosisPage struct {
	History []DiagnosisSummary `json:"history"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}

type CostInfo struct {
	LandArea       float64 `json:"land_area"`
	TreatmentCost  float64 `json:"treatment_cost"`
	PreventionCost float64 `json:"prevention_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// DiagnosisDetail is the body of diagnosis/:id.
type DiagnosisDetail struct {
	Diagnosis  DiagnosisSummary `json:"diagnosis"`
	Pesticides []Pesticide      `json:"pesticides"`
	Cost       *CostInfo        `json:"cost"`
}

// HistoryEntry is a guest-side record of a diagnosis kept for the current
// session only.
type HistoryEntry struct {
	ID              string          `json:"id"`
	Crop            string          `json:"crop"`
	Disease         string          `json:"disease"`
	Confidence      float64         `json:"confidence"`
	SeverityPercent float64         `json:"severity_percent"`
	Stage           string          `json:"stage"`
	CreatedAt       string          `json:"created_at"`
	FullData        json.RawMessage `json:"fullData,omitempty"`
}
