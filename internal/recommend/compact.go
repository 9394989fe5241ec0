package recommend

import (
	"alcyxob/gym-app/internal/domain"
)

// Compact returns copies of the workouts with the gym reference and every
// item's equipment reference reduced to a bare id, regardless of whether
// they were populated. Measures, notes and timestamps are copied unchanged.
// Compacting already compacted workouts yields the same values.
func Compact(workouts []domain.Workout) []domain.Workout {
	out := make([]domain.Workout, len(workouts))
	for i, w := range workouts {
		c := w
		c.Gym = w.Gym.Bare()
		c.Items = make([]domain.WorkoutItem, len(w.Items))
		for j, it := range w.Items {
			c.Items[j] = domain.WorkoutItem{
				Equipment:   it.Equipment.Bare(),
				Sets:        copyInt(it.Sets),
				Reps:        copyInt(it.Reps),
				DurationMin: copyFloat(it.DurationMin),
				WeightKg:    copyFloat(it.WeightKg),
				Notes:       it.Notes,
			}
		}
		if w.EndedAt != nil {
			ended := *w.EndedAt
			c.EndedAt = &ended
		}
		out[i] = c
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
