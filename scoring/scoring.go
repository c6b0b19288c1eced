// Package scoring computes questionnaire scores. All arithmetic is
// decimal; rounding happens only when a percentage is rendered.
package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/pinte/recruiting/model"
)

var hundred = decimal.NewFromInt(100)

type Result struct {
	Score      decimal.Decimal
	MaxScore   decimal.Decimal
	Percentage decimal.Decimal
}

// ResponseScore scores a full response. selections maps question id to
// the selected option ids for that question; questions the candidate
// did not answer simply contribute zero. MaxScore is the sum of every
// question's points, whatever was selected.
func ResponseScore(questions []model.Question, selections map[int][]int) Result {
	score := decimal.Zero
	maxScore := decimal.Zero

	for _, q := range questions {
		maxScore = maxScore.Add(q.Points)
		score = score.Add(QuestionScore(q, selections[q.ID]))
	}

	return Result{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: Percentage(score, maxScore),
	}
}

// QuestionScore computes one question's contribution for the given
// selected option ids. A question with no options, or a weighted
// question whose options all carry zero points, contributes zero: a
// degenerate configuration is not an error.
func QuestionScore(q model.Question, selectedIDs []int) decimal.Decimal {
	if len(q.Options) == 0 {
		return decimal.Zero
	}

	selected := make(map[int]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	switch q.ScoringMode {
	case model.AllOrNothing:
		return scoreAllOrNothing(q, selected)
	case model.Partial:
		return scorePartial(q, selected)
	case model.Weighted:
		return scoreWeighted(q, selected)
	}
	return decimal.Zero
}

// Full points iff the selected set equals the correct set exactly, no
// more and no fewer. Applies uniformly to single- and multi-select.
func scoreAllOrNothing(q model.Question, selected map[int]bool) decimal.Decimal {
	matched := 0
	for _, opt := range q.Options {
		if optionCorrect(opt) {
			if !selected[opt.ID] {
				return decimal.Zero
			}
			matched++
		} else if selected[opt.ID] {
			return decimal.Zero
		}
	}
	if matched != len(selected) {
		// a selected id outside this question's options
		return decimal.Zero
	}
	return q.Points
}

// Proportional credit: points * |selected ∩ correct| / |correct|.
// Incorrect selections earn nothing and never subtract, so adding a
// correct pick can only raise the score and an incorrect one can never
// raise it.
func scorePartial(q model.Question, selected map[int]bool) decimal.Decimal {
	correct, hit := 0, 0
	for _, opt := range q.Options {
		if !optionCorrect(opt) {
			continue
		}
		correct++
		if selected[opt.ID] {
			hit++
		}
	}
	if correct == 0 || hit == 0 {
		return decimal.Zero
	}
	return q.Points.
		Mul(decimal.NewFromInt(int64(hit))).
		Div(decimal.NewFromInt(int64(correct)))
}

// Weighted mode ignores is_correct entirely and uses option_points.
// Single-select normalizes the chosen option against the best option;
// multi-select normalizes the selected sum against the total.
func scoreWeighted(q model.Question, selected map[int]bool) decimal.Decimal {
	if q.QuestionType == model.SingleSelect {
		maxPoints := decimal.Zero
		chosenPoints := decimal.Zero
		chose := false
		for _, opt := range q.Options {
			pts := optionPoints(opt)
			if pts.GreaterThan(maxPoints) {
				maxPoints = pts
			}
			if selected[opt.ID] {
				chosenPoints = pts
				chose = true
			}
		}
		if !chose || !maxPoints.IsPositive() {
			return decimal.Zero
		}
		return q.Points.Mul(chosenPoints).Div(maxPoints)
	}

	totalPoints := decimal.Zero
	selectedPoints := decimal.Zero
	for _, opt := range q.Options {
		pts := optionPoints(opt)
		totalPoints = totalPoints.Add(pts)
		if selected[opt.ID] {
			selectedPoints = selectedPoints.Add(pts)
		}
	}
	if !totalPoints.IsPositive() {
		return decimal.Zero
	}
	return q.Points.Mul(selectedPoints).Div(totalPoints)
}

// Percentage returns score/max*100, or zero for an empty template.
func Percentage(score, maxScore decimal.Decimal) decimal.Decimal {
	if !maxScore.IsPositive() {
		return decimal.Zero
	}
	return score.Mul(hundred).Div(maxScore)
}

func optionCorrect(opt model.Option) bool {
	return opt.IsCorrect != nil && *opt.IsCorrect
}

func optionPoints(opt model.Option) decimal.Decimal {
	if opt.OptionPoints == nil {
		return decimal.Zero
	}
	return *opt.OptionPoints
}
