package services

// UserScoreSummary is the aggregated outcome for one subject across all their
// scorable tests.
type UserScoreSummary struct {
	OverallScore      float64  `json:"overall_score"`
	OverallPercentile *float64 `json:"overall_percentile"`
	OverallGrade      *string  `json:"overall_grade"`
	ScorableTests     int      `json:"scorable_tests"`
}

// ScoreRange bounds the scaled scores observed in a population.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SessionScoreSummary aggregates participant scores for one session.
// AverageScore and Range are nil when no scorable scores exist: zero is a
// valid score, nil means no data.
type SessionScoreSummary struct {
	AverageScore *float64    `json:"average_score"`
	Range        *ScoreRange `json:"score_range"`
}

// GroupFreshScoresByUser buckets scores by subject id.
func GroupFreshScoresByUser(scores []FreshScore) map[uint][]FreshScore {
	grouped := make(map[uint][]FreshScore)
	for _, score := range scores {
		grouped[score.UserID] = append(grouped[score.UserID], score)
	}
	return grouped
}

// CalculateUserAverageFromFreshScores averages one subject's scores after
// excluding rating-scale instruments. An empty set after exclusion yields
// OverallScore 0 with no grade, which distinguishes "no scorable tests taken"
// from "scored zero".
func CalculateUserAverageFromFreshScores(scores []FreshScore) UserScoreSummary {
	summary := UserScoreSummary{}

	var scoreSum float64
	var percentileSum float64
	percentileCount := 0

	for _, score := range scores {
		if score.IsRatingScaleTest {
			continue
		}
		summary.ScorableTests++
		scoreSum += score.ScaledScore
		if score.Percentile != nil {
			percentileSum += *score.Percentile
			percentileCount++
		}
	}

	if summary.ScorableTests == 0 {
		return summary
	}

	// The grade bands the exact mean. Rounding the displayed score first
	// would lift a true mean of 89.999 across the A boundary.
	mean := scoreSum / float64(summary.ScorableTests)
	summary.OverallScore = roundFloat(mean, 2)
	if percentileCount > 0 {
		avg := roundFloat(percentileSum/float64(percentileCount), 2)
		summary.OverallPercentile = &avg
	}
	if mean > 0 {
		grade := calculateGrade(mean)
		summary.OverallGrade = &grade
	}

	return summary
}

// calculateGrade bands an overall score. Boundary values belong to the
// higher band.
func calculateGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "E"
	}
}

// CalculateSessionScoreStats computes the average and min/max range of
// scaled scores across a session's participants, skipping rating-scale
// instruments.
func CalculateSessionScoreStats(scores []FreshScore) SessionScoreSummary {
	summary := SessionScoreSummary{}

	var sum float64
	count := 0
	var min, max float64

	for _, score := range scores {
		if score.IsRatingScaleTest {
			continue
		}
		if count == 0 {
			min, max = score.ScaledScore, score.ScaledScore
		} else {
			if score.ScaledScore < min {
				min = score.ScaledScore
			}
			if score.ScaledScore > max {
				max = score.ScaledScore
			}
		}
		sum += score.ScaledScore
		count++
	}

	if count == 0 {
		return summary
	}

	avg := roundFloat(sum/float64(count), 2)
	summary.AverageScore = &avg
	summary.Range = &ScoreRange{Min: min, Max: max}
	return summary
}
