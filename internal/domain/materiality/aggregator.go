package materiality

import "math"

// DisplayPrecision is the number of decimals used when presenting averages.
const DisplayPrecision = 4

// Aggregate collapses raw per-respondent answers into one averaged question
// per question_id and drops ineligible questions.  Category order and the
// first-seen order of questions within a category are preserved.  A category
// left without eligible questions maps to an empty list.
//
// Answers that were already averaged upstream (one entry per question_id)
// pass through unchanged.  For several entries sharing a question_id,
// priority and status_quo are averaged independently over their non-null
// values; a value with no non-null answers stays null and the question is
// then ineligible.
func Aggregate(resp QuestionResponse) QuestionResponse {
	out := make(QuestionResponse, 0, len(resp))
	for _, cat := range resp {
		out = append(out, CategoryQuestions{
			Category:  cat.Category,
			Info:      cat.Info,
			Questions: aggregateCategory(cat.Category, cat.Questions),
		})
	}
	return out
}

// AggregateGroup returns a copy of g whose question_response is aggregated.
func AggregateGroup(g StakeholderGroup) StakeholderGroup {
	g.QuestionResponse = Aggregate(g.QuestionResponse)
	return g
}

type answerAccumulator struct {
	first       Question
	prioritySum float64
	priorityN   int
	statusSum   float64
	statusN     int
	answerCount int
}

func (a *answerAccumulator) add(q Question) {
	a.answerCount++
	if q.Priority != nil {
		a.prioritySum += *q.Priority
		a.priorityN++
	}
	if q.StatusQuo != nil {
		a.statusSum += *q.StatusQuo
		a.statusN++
	}
}

func (a *answerAccumulator) result(category string) Question {
	q := a.first
	if q.Category == "" {
		q.Category = category
	}
	if a.answerCount == 1 {
		return q
	}
	q.Priority = mean(a.prioritySum, a.priorityN)
	q.StatusQuo = mean(a.statusSum, a.statusN)
	return q
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func aggregateCategory(category string, questions []Question) []Question {
	order := make([]QuestionID, 0, len(questions))
	acc := make(map[QuestionID]*answerAccumulator, len(questions))
	for _, q := range questions {
		a, ok := acc[q.QuestionID]
		if !ok {
			a = &answerAccumulator{first: q}
			acc[q.QuestionID] = a
			order = append(order, q.QuestionID)
		}
		a.add(q)
	}

	out := make([]Question, 0, len(order))
	for _, id := range order {
		q := acc[id].result(category)
		if q.IsEligible() {
			out = append(out, q)
		}
	}
	return out
}

// RoundForDisplay rounds v to DisplayPrecision decimals.  Aggregation itself
// always keeps full precision.
func RoundForDisplay(v float64) float64 {
	const scale = 1e4
	return math.Round(v*scale) / scale
}
