package scoring

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pinte/recruiting/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// option builds a test option with correctness and weight set.
func option(id int, correct bool, points string) model.Option {
	pts := dec(points)
	return model.Option{ID: id, IsCorrect: &correct, OptionPoints: &pts}
}

func TestAllOrNothingExactMatch(t *testing.T) {
	q := model.Question{
		ID:           1,
		QuestionType: model.MultiSelect,
		ScoringMode:  model.AllOrNothing,
		Points:       dec("5"),
		Options: []model.Option{
			option(1, true, "0"),  // A
			option(2, true, "0"),  // B
			option(3, false, "0"), // C
		},
	}

	cases := []struct {
		name     string
		selected []int
		want     string
	}{
		{"exact match", []int{1, 2}, "5"},
		{"missing a correct option", []int{1}, "0"},
		{"extra incorrect option", []int{1, 2, 3}, "0"},
		{"only incorrect", []int{3}, "0"},
		{"nothing selected", nil, "0"},
	}
	for _, c := range cases {
		if got := QuestionScore(q, c.selected); !got.Equal(dec(c.want)) {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestAllOrNothingSingleSelect(t *testing.T) {
	q := model.Question{
		ID:           1,
		QuestionType: model.SingleSelect,
		ScoringMode:  model.AllOrNothing,
		Points:       dec("2.5"),
		Options: []model.Option{
			option(1, true, "0"),
			option(2, false, "0"),
		},
	}

	if got := QuestionScore(q, []int{1}); !got.Equal(dec("2.5")) {
		t.Fatalf("correct pick: got %s, want 2.5", got)
	}
	if got := QuestionScore(q, []int{2}); !got.IsZero() {
		t.Fatalf("wrong pick: got %s, want 0", got)
	}
}

func TestPartialProportionalCredit(t *testing.T) {
	q := model.Question{
		ID:           1,
		QuestionType: model.MultiSelect,
		ScoringMode:  model.Partial,
		Points:       dec("4"),
		Options: []model.Option{
			option(1, true, "0"),
			option(2, true, "0"),
			option(3, false, "0"),
			option(4, false, "0"),
		},
	}

	cases := []struct {
		name     string
		selected []int
		want     string
	}{
		{"all correct", []int{1, 2}, "4"},
		{"half correct", []int{1}, "2"},
		{"nothing", nil, "0"},
		{"only incorrect", []int{3, 4}, "0"},
		{"correct plus incorrect", []int{1, 3}, "2"},
	}
	for _, c := range cases {
		if got := QuestionScore(q, c.selected); !got.Equal(dec(c.want)) {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestPartialMonotonic(t *testing.T) {
	q := model.Question{
		ID:           1,
		QuestionType: model.MultiSelect,
		ScoringMode:  model.Partial,
		Points:       dec("3"),
		Options: []model.Option{
			option(1, true, "0"),
			option(2, true, "0"),
			option(3, true, "0"),
			option(4, false, "0"),
		},
	}

	// adding correct options never lowers the score
	prev := decimal.Zero
	selected := []int{}
	for _, id := range []int{1, 2, 3} {
		selected = append(selected, id)
		got := QuestionScore(q, selected)
		if got.LessThan(prev) {
			t.Fatalf("adding correct option %d lowered score: %s -> %s", id, prev, got)
		}
		prev = got
	}

	// adding an incorrect option never raises it
	withIncorrect := QuestionScore(q, []int{1, 2, 4})
	withoutIncorrect := QuestionScore(q, []int{1, 2})
	if withIncorrect.GreaterThan(withoutIncorrect) {
		t.Fatalf("incorrect option raised score: %s > %s", withIncorrect, withoutIncorrect)
	}
}

func TestWeightedSingleSelect(t *testing.T) {
	q := model.Question{
		ID:           1,
		QuestionType: model.SingleSelect,
		ScoringMode:  model.Weighted,
		Points:       dec("1.0"),
		Options: []model.Option{
			option(1, false, "1"),
			option(2, false, "2"),
			option(3, false, "3"),
		},
	}

	if got := QuestionScore(q, []int{3}); !got.Equal(dec("1")) {
		t.Fatalf("best option: got %s, want 1", got)
	}
	want := dec("1").Div(dec("3"))
	if got := QuestionScore(q, []int{1}); !got.Equal(want) {
		t.Fatalf("worst option: got %s, want %s", got, want)
	}
	if got := QuestionScore(q, nil); !got.IsZero() {
		t.Fatalf("no choice: got %s, want 0", got)
	}
}

func TestWeightedMultiSelectNormalization(t *testing.T) {
	// is_correct deliberately contradicts the weights: weighted mode
	// must ignore it
	q := model.Question{
		ID:           1,
		QuestionType: model.MultiSelect,
		ScoringMode:  model.Weighted,
		Points:       dec("1.0"),
		Options: []model.Option{
			option(1, true, "1"),  // A
			option(2, true, "2"),  // B
			option(3, false, "3"), // C
		},
	}

	cases := []struct {
		name     string
		selected []int
		want     string
	}{
		{"highest single", []int{3}, "1"},
		{"A and B", []int{1, 2}, "0.5"},
		{"all", []int{1, 2, 3}, "1"},
		{"none", nil, "0"},
	}
	for _, c := range cases {
		if got := QuestionScore(q, c.selected); !got.Equal(dec(c.want)) {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestDegenerateConfigurations(t *testing.T) {
	cases := []struct {
		name string
		q    model.Question
	}{
		{"no options", model.Question{
			ID: 1, QuestionType: model.MultiSelect, ScoringMode: model.AllOrNothing, Points: dec("5"),
		}},
		{"weighted all zero points", model.Question{
			ID: 1, QuestionType: model.MultiSelect, ScoringMode: model.Weighted, Points: dec("5"),
			Options: []model.Option{option(1, false, "0"), option(2, false, "0")},
		}},
		{"weighted single-select all zero points", model.Question{
			ID: 1, QuestionType: model.SingleSelect, ScoringMode: model.Weighted, Points: dec("5"),
			Options: []model.Option{option(1, false, "0")},
		}},
		{"partial no correct options", model.Question{
			ID: 1, QuestionType: model.MultiSelect, ScoringMode: model.Partial, Points: dec("5"),
			Options: []model.Option{option(1, false, "0")},
		}},
	}
	for _, c := range cases {
		if got := QuestionScore(c.q, []int{1}); !got.IsZero() {
			t.Fatalf("%s: got %s, want 0", c.name, got)
		}
	}
}

func TestResponseScoreMaxScoreInvariant(t *testing.T) {
	questions := []model.Question{
		{
			ID: 1, QuestionType: model.MultiSelect, ScoringMode: model.AllOrNothing, Points: dec("5"),
			Options: []model.Option{option(1, true, "0"), option(2, false, "0")},
		},
		{
			ID: 2, QuestionType: model.SingleSelect, ScoringMode: model.Weighted, Points: dec("2.5"),
			Options: []model.Option{option(3, false, "1"), option(4, false, "4")},
		},
		{
			ID: 3, QuestionType: model.MultiSelect, ScoringMode: model.Partial, Points: dec("2"),
			Options: []model.Option{option(5, true, "0"), option(6, true, "0")},
		},
	}

	// max_score is the same whatever is selected
	for _, selections := range []map[int][]int{
		{},
		{1: {1}},
		{1: {1}, 2: {4}, 3: {5, 6}},
	} {
		result := ResponseScore(questions, selections)
		if !result.MaxScore.Equal(dec("9.5")) {
			t.Fatalf("max_score %s, want 9.5 (selections %v)", result.MaxScore, selections)
		}
	}

	full := ResponseScore(questions, map[int][]int{1: {1}, 2: {4}, 3: {5, 6}})
	if !full.Score.Equal(dec("9.5")) {
		t.Fatalf("full score %s, want 9.5", full.Score)
	}
	if !full.Percentage.Equal(dec("100")) {
		t.Fatalf("full percentage %s, want 100", full.Percentage)
	}
}

func TestPercentageZeroMax(t *testing.T) {
	if got := Percentage(decimal.Zero, decimal.Zero); !got.IsZero() {
		t.Fatalf("got %s, want 0", got)
	}
	if got := Percentage(dec("3"), dec("4")); !got.Equal(dec("75")) {
		t.Fatalf("got %s, want 75", got)
	}
}
