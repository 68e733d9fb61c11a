package domain

// Scorable is the one capability the recorder needs from a question:
// turn a submitted answer into points in [0, MaxPoints]. Concrete question
// kinds (MCQ, short answer, drag and drop) live behind this boundary.
type Scorable interface {
	QuestionID() string
	MaxPoints() float64
	ScoreForAnswer(answer AnswerSubmission) float64
}

// QuestionID implements Scorable.
func (q Question) QuestionID() string { return q.ID }

// MaxPoints implements Scorable. Zero-point questions default to 1.
func (q Question) MaxPoints() float64 {
	if q.Points == 0 {
		return 1
	}
	return q.Points
}

// ScoreForAnswer awards full points for the correct option, zero otherwise.
func (q Question) ScoreForAnswer(answer AnswerSubmission) float64 {
	for i := range q.Options {
		if q.Options[i].ID == answer.OptionID {
			if q.Options[i].Correct {
				return q.MaxPoints()
			}
			return 0
		}
	}
	return 0
}
