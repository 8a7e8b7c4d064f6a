package models

// TimeBlock is the commute/leisure segment an hour of day falls into
type TimeBlock string

const (
	MorningCommute TimeBlock = "Morning-Commute"
	MiddayLeisure  TimeBlock = "Midday-Leisure"
	EveningCommute TimeBlock = "Evening-Commute"
	Night          TimeBlock = "Night"
)

// TimeBlocks lists every time block in canonical display order
var TimeBlocks = []TimeBlock{MorningCommute, MiddayLeisure, EveningCommute, Night}

// WindCategory is the severity band of a normalized wind speed
type WindCategory string

const (
	WindLow      WindCategory = "Low"
	WindModerate WindCategory = "Moderate"
	WindHigh     WindCategory = "High"
	WindExtreme  WindCategory = "Extreme"
)

// WindCategories lists every wind category in canonical display order
var WindCategories = []WindCategory{WindLow, WindModerate, WindHigh, WindExtreme}
