package materiality

func q(id, code string, priority, status *float64) Question {
	return Question{QuestionID: QuestionID(id), IndexCode: code, Priority: priority, StatusQuo: status}
}

func qv(id, code string, priority, status float64) Question {
	return q(id, code, Float(priority), Float(status))
}

func response(entries ...CategoryQuestions) QuestionResponse {
	return QuestionResponse(entries)
}

func cat(name string, questions ...Question) CategoryQuestions {
	if questions == nil {
		questions = []Question{}
	}
	return CategoryQuestions{Category: name, Questions: questions}
}

func group(id int64, name string, resp QuestionResponse) StakeholderGroup {
	return StakeholderGroup{
		ID:               id,
		DisplayName:      name,
		HasResponses:     true,
		ShowInTable:      true,
		StakeholderCount: 3,
		QuestionResponse: resp,
	}
}

func allPoints(series []PlotSeries) []SeriesPoint {
	var out []SeriesPoint
	for _, s := range series {
		out = append(out, s.Points...)
	}
	return out
}
