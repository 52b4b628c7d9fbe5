package task

import (
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
)

var starterTasks = []struct {
	title, icon, description string
	points                   int
	freq                     model.Frequency
}{
	{"Make your bed", "🛏️", "Straighten the sheets and fluff the pillow", 5, model.FrequencyDaily},
	{"Brush your teeth", "🪥", "Morning and evening, two minutes each", 2, model.FrequencyDaily},
	{"Help with the dishes", "🍽️", "Clear the table or load the dishwasher", 5, model.FrequencyDaily},
	{"Read for 20 minutes", "📚", "Any book you like", 5, model.FrequencyDaily},
	{"Tidy your room", "🧹", "Toys away, clothes in the hamper", 10, model.FrequencyWeekly},
	{"Take out the trash", "🗑️", "Bins to the curb on collection day", 10, model.FrequencyWeekly},
}

// seedTasks builds the starter board. Every starter task is open to all members.
func seedTasks(now time.Time) []model.Task {
	tasks := make([]model.Task, 0, len(starterTasks))
	for _, s := range starterTasks {
		tasks = append(tasks, model.Task{
			ID:          model.NewID(),
			Title:       s.title,
			Icon:        s.icon,
			Description: s.description,
			Points:      s.points,
			Frequency:   s.freq,
			CreatedAt:   now,
		})
	}
	return tasks
}
