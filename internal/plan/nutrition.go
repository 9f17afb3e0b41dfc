package plan

type Zone string

const (
	ZoneEarly Zone = "early"
	ZoneMid   Zone = "mid"
	ZoneLate  Zone = "late"
)

type Rate struct {
	CarbsPerHour    float64 `json:"carbsPerHour"`
	CaloriesPerHour float64 `json:"caloriesPerHour"`
}

// NutritionModel decides intake per running hour. Zones are chosen by the
// cumulative distance at the end of a segment.
type NutritionModel struct {
	EarlyMaxKm    float64       `json:"earlyMaxKm"`
	MidMaxKm      float64       `json:"midMaxKm"`
	Rates         map[Zone]Rate `json:"rates"`
	LitersPerHour float64       `json:"litersPerHour"`
	// PacerShare is the fraction of the runner's intake a pacer carries for themselves.
	PacerShare float64 `json:"pacerShare"`
}

func DefaultNutrition() NutritionModel {
	return NutritionModel{
		EarlyMaxKm: 102,
		MidMaxKm:   212,
		Rates: map[Zone]Rate{
			ZoneEarly: {CarbsPerHour: 100, CaloriesPerHour: 300},
			ZoneMid:   {CarbsPerHour: 80, CaloriesPerHour: 275},
			ZoneLate:  {CarbsPerHour: 60, CaloriesPerHour: 250},
		},
		LitersPerHour: 0.75,
		PacerShare:    0.5,
	}
}

// ZoneFor is inclusive at each upper bound: exactly EarlyMaxKm is still early.
func (m NutritionModel) ZoneFor(cumulativeKm float64) Zone {
	switch {
	case cumulativeKm <= m.EarlyMaxKm:
		return ZoneEarly
	case cumulativeKm <= m.MidMaxKm:
		return ZoneMid
	default:
		return ZoneLate
	}
}

func (m NutritionModel) For(zone Zone, runningHours float64) Nutrition {
	r := m.Rates[zone]
	return Nutrition{
		Carbs:    runningHours * r.CarbsPerHour,
		Calories: runningHours * r.CaloriesPerHour,
		Liters:   runningHours * m.LitersPerHour,
	}
}

type Nutrition struct {
	Carbs    float64 `json:"carbs"`
	Calories float64 `json:"calories"`
	Liters   float64 `json:"liters"`
}

func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Carbs:    n.Carbs + o.Carbs,
		Calories: n.Calories + o.Calories,
		Liters:   n.Liters + o.Liters,
	}
}

func (n Nutrition) Scale(f float64) Nutrition {
	return Nutrition{
		Carbs:    n.Carbs * f,
		Calories: n.Calories * f,
		Liters:   n.Liters * f,
	}
}
