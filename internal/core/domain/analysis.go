package domain

import "encoding/json"

// LandSummary describes the analysed parcel.
type LandSummary struct {
	Area      float64 `json:"area,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Conditions are the field conditions at the parcel.
type Conditions struct {
	Temperature     float64 `json:"temperature,omitempty"`
	Humidity        float64 `json:"humidity,omitempty"`
	Weather         string  `json:"weather,omitempty"`
	WindSpeed       float64 `json:"windSpeed,omitempty"`
	RainProbability float64 `json:"rainProbability,omitempty"`
	UVIndex         float64 `json:"uvIndex,omitempty"`
	NDVI            float64 `json:"ndvi,omitempty"`
}

type LandAnalysis struct {
	Land       *LandSummary `json:"land,omitempty"`
	Conditions *Conditions  `json:"conditions,omitempty"`
}

type CropRecommendation struct {
	Crop     string   `json:"crop,omitempty"`
	Name     string   `json:"name,omitempty"`
	Score    float64  `json:"score,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
	Benefits []string `json:"benefits,omitempty"`
}

// Title returns whichever of crop or name the backend filled in.
func (c CropRecommendation) Title() string {
	if c.Crop != "" {
		return c.Crop
	}
	return c.Name
}

// Analysis is the AI land analysis.
type Analysis struct {
	LandAnalysis        *LandAnalysis        `json:"landAnalysis,omitempty"`
	AIInsights          json.RawMessage      `json:"aiInsights,omitempty"`
	CropRecommendations []CropRecommendation `json:"cropRecommendations,omitempty"`
}

// Insights flattens aiInsights, which the backend sends either as a string or
// as a list of strings. Any other shape is returned as its JSON text.
func (a *Analysis) Insights() []string {
	if a == nil || len(a.AIInsights) == 0 || string(a.AIInsights) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(a.AIInsights, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(a.AIInsights, &list); err == nil {
		return list
	}
	return []string{string(a.AIInsights)}
}

// Recommendation is an input the agent suggests ordering.
type Recommendation struct {
	Product       string  `json:"product"`
	Quantity      float64 `json:"quantity"`
	EstimatedCost float64 `json:"estimatedCost"`
	Reason        string  `json:"reason,omitempty"`
	Priority      string  `json:"priority,omitempty"`
}

// PriorityOrDefault returns the priority, defaulting to "low".
func (r Recommendation) PriorityOrDefault() string {
	if r.Priority == "" {
		return "low"
	}
	return r.Priority
}

type AutomatedOrdering struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Ordering struct {
	OrderReadyRecommendations []Recommendation   `json:"orderReadyRecommendations,omitempty"`
	Automated                 *AutomatedOrdering `json:"automated,omitempty"`
}

// AnalysisResult is the analyze-and-order response envelope.
type AnalysisResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Ordering *Ordering `json:"ordering,omitempty"`
}

// RecommendationList is the recommendations response envelope.
type RecommendationList struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// OrderingResult is the execute-ordering response envelope.
type OrderingResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Orders  []Order `json:"orders,omitempty"`
}

// Dashboard is everything the farmer's home screen shows.
type Dashboard struct {
	Analysis        *Analysis          `json:"analysis,omitempty"`
	Automated       *AutomatedOrdering `json:"automated,omitempty"`
	Recommendations []Recommendation   `json:"recommendations"`
	Orders          []Order            `json:"orders"`
}
