package training

import "fmt"

// InfoMessage is the summary of one finished session.
type InfoMessage struct {
	TrainingType string  `json:"training_type"`
	Duration     float64 `json:"duration"`
	Distance     float64 `json:"distance"`
	Speed        float64 `json:"speed"`
	Calories     float64 `json:"calories"`
}

// String renders the message with three decimal places per figure.
func (m InfoMessage) String() string {
	return fmt.Sprintf(
		"Тип тренировки: %s; Длительность: %.3f ч.; Дистанция: %.3f км; Ср. скорость: %.3f км/ч; Потрачено ккал: %.3f.",
		m.TrainingType, m.Duration, m.Distance, m.Speed, m.Calories)
}

// ShowTrainingInfo composes the summary for s. It fails when s has no
// calorie formula of its own.
func ShowTrainingInfo(s Session) (InfoMessage, error) {
	calories, err := s.SpentCalories()
	if err != nil {
		return InfoMessage{}, fmt.Errorf("%s calories: %w", s.TrainingType(), err)
	}
	return InfoMessage{
		TrainingType: s.TrainingType(),
		Duration:     s.Hours(),
		Distance:     s.Distance(),
		Speed:        s.MeanSpeed(),
		Calories:     calories,
	}, nil
}
