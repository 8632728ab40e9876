package service

import (
	"errors"
	"fmt"

	"endurance/internal/analysis"
	"endurance/internal/store"
)

// ErrInvalidObjective is returned when an objective cannot be evaluated
var ErrInvalidObjective = errors.New("invalid objective")

// GetObjectiveProgress evaluates every objective of the user for the current period
func (q *QueryService) GetObjectiveProgress() ([]analysis.ObjectiveProgress, error) {
	objectives, err := q.store.ListObjectives(q.userID)
	if err != nil {
		return nil, err
	}
	if len(objectives) == 0 {
		return nil, nil
	}
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}

	now := q.now()
	out := make([]analysis.ObjectiveProgress, 0, len(objectives))
	for _, o := range objectives {
		out = append(out, analysis.EvaluateObjective(o, ds.acts, now))
	}
	return out, nil
}

// SaveObjective validates and stores an objective for the user
func (q *QueryService) SaveObjective(o store.Objective) (string, error) {
	o.UserID = q.userID
	if err := validateObjective(o); err != nil {
		return "", err
	}
	return q.store.SaveObjective(&o)
}

// DeleteObjective removes an objective
func (q *QueryService) DeleteObjective(id string) error {
	return q.store.DeleteObjective(id)
}

func validateObjective(o store.Objective) error {
	if !(o.Value > 0) {
		return fmt.Errorf("%w: value must be positive", ErrInvalidObjective)
	}
	switch o.Kind {
	case store.ObjectiveTotalHours:
	case store.ObjectiveSessions, store.ObjectiveHours, store.ObjectiveDistance, store.ObjectiveElevation:
		switch o.Period {
		case store.PeriodDay, store.PeriodWeek, store.PeriodMonth, store.PeriodYear:
		default:
			return fmt.Errorf("%w: unknown period %q", ErrInvalidObjective, o.Period)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidObjective, o.Kind)
	}
	if o.Sport != "" {
		known := false
		for _, s := range store.Sports {
			known = known || s == o.Sport
		}
		if !known {
			return fmt.Errorf("%w: unknown sport %q", ErrInvalidObjective, o.Sport)
		}
	}
	return nil
}
