package models

import "time"

// PlanRecord is the archived form of a computed plan.
type PlanRecord struct {
	ID           string             `bson:"_id" json:"id"`
	Source       string             `bson:"source" json:"source"`
	Category     string             `bson:"category" json:"category"`
	Bracket      string             `bson:"bracket" json:"bracket"`
	FlockSize    int                `bson:"flock_size" json:"flock_size"`
	MaturityDays int                `bson:"maturity_days" json:"maturity_days"`
	Grams        map[string]float64 `bson:"grams" json:"grams"`
	Omitted      []string           `bson:"omitted" json:"omitted"`
	Currency     string             `bson:"currency,omitempty" json:"currency,omitempty"`
	DailyCost    float64            `bson:"daily_cost,omitempty" json:"daily_cost,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Schedule is the day-by-day feeding table derived from a plan.
type Schedule struct {
	Columns []string      `json:"columns"`
	Rows    []ScheduleRow `json:"rows"`
}

// ScheduleRow holds grams per column for one day.
type ScheduleRow struct {
	Day   int       `json:"day"`
	Grams []float64 `json:"grams"`
}
