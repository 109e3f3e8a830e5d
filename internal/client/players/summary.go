package players

import "github.com/dmitrijs2005/psadmin/internal/client/models"

// Summary holds the dashboard header figures.
type Summary struct {
	Total            int
	AverageAnxiety   float64
	NeedConsultation int
}

// Summarize computes Summary over list. AverageAnxiety is 0 for an empty list.
func Summarize(list []*models.Player) Summary {
	s := Summary{Total: len(list)}
	if len(list) == 0 {
		return s
	}
	var sum float64
	for _, p := range list {
		sum += p.AnxietyPercentage
		if NeedsConsultation(p.AnxietyPercentage) {
			s.NeedConsultation++
		}
	}
	s.AverageAnxiety = sum / float64(len(list))
	return s
}
