package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
)

// TraitScore is one trait's accumulated contribution within an attempt.
type TraitScore struct {
	Trait    string  `json:"trait"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

// FreshScore is a derived value object recomputed from raw answers on every
// report request. It is never persisted as source of truth.
type FreshScore struct {
	UserID               uint         `json:"user_id"`
	TestID               uint         `json:"test_id"`
	AttemptID            uint         `json:"attempt_id"`
	RawScore             float64      `json:"raw_score"`
	ScaledScore          float64      `json:"scaled_score"` // [0,100]
	Percentile           *float64     `json:"percentile"`   // nil when population < 2
	TraitBreakdown       []TraitScore `json:"trait_breakdown"`
	IsRatingScaleTest    bool         `json:"is_rating_scale_test"`
	CompletionPercentage float64      `json:"completion_percentage"`
}

// questionScoringKey is the JSONB payload stored on each question.
type questionScoringKey struct {
	CorrectAnswer *string  `json:"correct_answer"`
	Points        *float64 `json:"points"`
}

// NormalizeAttempt converts one attempt's full answer set into a FreshScore.
// Pure function: no storage access, no side effects. Missing answers score 0
// for their item. An attempt with no answers yields a zero score with
// CompletionPercentage 0, not an error.
func NormalizeAttempt(attempt *models.TestAttempt, answers []*models.UserAnswer, questions []*models.Question, test *models.Test) FreshScore {
	fresh := FreshScore{
		UserID:            attempt.UserID,
		TestID:            attempt.TestID,
		AttemptID:         attempt.ID,
		IsRatingScaleTest: test.IsRatingScale(),
		TraitBreakdown:    []TraitScore{},
	}

	answerByQuestion := make(map[uint]*models.UserAnswer, len(answers))
	for _, ans := range answers {
		answerByQuestion[ans.QuestionID] = ans
	}

	var rawScore, maxScore float64
	answered := 0
	traits := make(map[string]*TraitScore)
	traitOrder := []string{}

	for _, question := range questions {
		answer := answerByQuestion[question.ID]
		if answer != nil {
			answered++
		}

		itemMax := questionMaxPoints(question)
		itemScore := scoreAnswer(question, answer, itemMax)

		if question.TraitName != nil && *question.TraitName != "" {
			trait, ok := traits[*question.TraitName]
			if !ok {
				trait = &TraitScore{Trait: *question.TraitName}
				traits[*question.TraitName] = trait
				traitOrder = append(traitOrder, *question.TraitName)
			}
			trait.Score += itemScore
			trait.MaxScore += itemMax
		}

		// Rating-scale items record preference only and stay out of the
		// score denominator.
		if !question.IsScorable() {
			continue
		}

		rawScore += itemScore
		maxScore += itemMax
	}

	fresh.RawScore = roundFloat(rawScore, 2)
	if maxScore > 0 {
		fresh.ScaledScore = roundFloat(clamp(rawScore/maxScore*100, 0, 100), 2)
	}
	if len(questions) > 0 {
		fresh.CompletionPercentage = roundFloat(float64(answered)/float64(len(questions))*100, 2)
	}
	for _, name := range traitOrder {
		fresh.TraitBreakdown = append(fresh.TraitBreakdown, *traits[name])
	}

	return fresh
}

// AttachPercentiles fills in percentile per test population: the fraction of
// the same test's scores strictly below the subject's scaled score, expressed
// 0-100 and rounded to the nearest integer. Populations smaller than 2 leave
// percentile nil.
func AttachPercentiles(scores []FreshScore) {
	byTest := make(map[uint][]int)
	for i := range scores {
		byTest[scores[i].TestID] = append(byTest[scores[i].TestID], i)
	}

	for _, indexes := range byTest {
		if len(indexes) < 2 {
			continue
		}
		for _, i := range indexes {
			below := 0
			for _, j := range indexes {
				if scores[j].ScaledScore < scores[i].ScaledScore {
					below++
				}
			}
			percentile := math.Round(float64(below) / float64(len(indexes)) * 100)
			scores[i].Percentile = &percentile
		}
	}
}

func questionMaxPoints(question *models.Question) float64 {
	var key questionScoringKey
	if len(question.ScoringKey) > 0 {
		if err := json.Unmarshal(question.ScoringKey, &key); err == nil && key.Points != nil && *key.Points > 0 {
			return *key.Points
		}
	}
	return 1
}

// scoreAnswer resolves the achieved points for one item. An explicit stored
// score wins; otherwise the raw answer is compared against the scoring key.
func scoreAnswer(question *models.Question, answer *models.UserAnswer, itemMax float64) float64 {
	if answer == nil {
		return 0
	}
	if answer.Score != nil {
		return clamp(*answer.Score, 0, itemMax)
	}
	if answer.IsCorrect != nil {
		if *answer.IsCorrect {
			return itemMax
		}
		return 0
	}
	if answer.Answer == nil {
		return 0
	}

	var key questionScoringKey
	if len(question.ScoringKey) == 0 {
		return 0
	}
	if err := json.Unmarshal(question.ScoringKey, &key); err != nil || key.CorrectAnswer == nil {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(*answer.Answer), strings.TrimSpace(*key.CorrectAnswer)) {
		return itemMax
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
