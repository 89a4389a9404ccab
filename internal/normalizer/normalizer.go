// Package normalizer converts between the editable activity set a user enters
// and the canonical activity log the estimator consumes.
//
// Conversion is total in both directions and never fails: unreadable numbers
// fall back to a default and unknown labels fall back to a default bucket.
// The package holds no state and is safe for concurrent use.
package normalizer

import (
	"github.com/rshade/footprint/internal/activity"
)

// ToCanonical folds an editable activity set into the canonical log for date.
// Heating is added to electricity; there is no separate heating category.
func ToCanonical(ea activity.EditableActivities, date string) activity.ActivityLog {
	log := activity.ActivityLog{
		Date: date,
		ElectricityKwh: ParseFloat(ea.Energy.Electricity, 0) +
			ParseFloat(ea.Energy.Heating, 0),
	}

	if len(ea.Transport) > 0 {
		log.Transportation = make([]activity.TransportTrip, 0, len(ea.Transport))
	}
	for _, t := range ea.Transport {
		log.Transportation = append(log.Transportation, activity.TransportTrip{
			Mode:        ClassifyMode(t.Mode),
			DistanceKm:  ParseFloat(t.Distance, 0),
			Description: t.Description,
		})
	}

	if len(ea.Meals) > 0 {
		log.Food = make([]activity.MealEntry, 0, len(ea.Meals))
	}
	for _, m := range ea.Meals {
		log.Food = append(log.Food, activity.MealEntry{
			MealType:      ClassifyDiet(m.Type + " " + m.Description),
			ServingsCount: ParseServings(m.Servings),
			Description:   m.Description,
		})
	}

	return log
}

// ToEditable expands a canonical log back into editable form.
//
// Stored electricity is surfaced entirely as electricity and heating reads 0:
// the split cannot be recovered once merged. A meal without a stored
// description uses its diet label.
func ToEditable(log activity.ActivityLog) activity.EditableActivities {
	ea := activity.EditableActivities{
		Transport: make([]activity.EditableTrip, 0, len(log.Transportation)),
		Energy: activity.EditableEnergy{
			Electricity: activity.FieldFromFloat(ClampDistance(log.ElectricityKwh)),
			Heating:     activity.FieldFromInt(0),
		},
		Meals: make([]activity.EditableMeal, 0, len(log.Food)),
	}

	for _, t := range log.Transportation {
		ea.Transport = append(ea.Transport, activity.EditableTrip{
			Mode:        ModeLabel(t.Mode),
			Distance:    activity.FieldFromFloat(ClampDistance(t.DistanceKm)),
			Description: t.Description,
		})
	}

	for _, m := range log.Food {
		label := DefaultDietLabel
		if diet, ok := activity.ParseDiet(string(m.MealType)); ok {
			label = DietLabel(diet)
		}
		desc := m.Description
		if desc == "" {
			desc = label
		}
		ea.Meals = append(ea.Meals, activity.EditableMeal{
			Type:        label,
			Description: desc,
			Servings:    activity.FieldFromInt(ClampServings(m.ServingsCount)),
		})
	}

	return ea
}

// Sanitize cleans a canonical log that arrived already typed, for example
// from a submission payload: distances and energy are clamped to >= 0,
// servings to >= 1, and legacy or unknown diet values are folded onto the
// canonical set. Unknown modes are kept as-is; the estimator gives them a
// zero factor.
func Sanitize(log activity.ActivityLog) activity.ActivityLog {
	out := log.Clone()
	out.ElectricityKwh = ClampDistance(out.ElectricityKwh)

	for i := range out.Transportation {
		out.Transportation[i].DistanceKm = ClampDistance(out.Transportation[i].DistanceKm)
	}

	for i := range out.Food {
		meal := &out.Food[i]
		if diet, ok := activity.ParseDiet(string(meal.MealType)); ok {
			meal.MealType = diet
		} else {
			meal.MealType = ClassifyDiet(string(meal.MealType) + " " + meal.Description)
		}
		meal.ServingsCount = ClampServings(meal.ServingsCount)
	}

	return out
}
