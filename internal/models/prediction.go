package models

// PredictionQuery is the set of house attributes sent to the price model.
type PredictionQuery struct {
	Location     string  `json:"location"`
	AreaType     string  `json:"area_type"`
	Availability string  `json:"availability"`
	Sqft         float64 `json:"sqft"`
	BHK          int     `json:"bhk"`
	Bath         int     `json:"bath"`
}

// Prediction is the model's estimate, in lakhs of rupees.
type Prediction struct {
	Query PredictionQuery `json:"query"`
	Price float64         `json:"price"`
	Text  string          `json:"text"`
}
