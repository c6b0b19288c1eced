package questionnaire

import (
	"context"
	"database/sql"

	"github.com/pinte/recruiting/model"
)

// Steps is an ordered view of the active questionnaires for one
// position, ready for presentation as sequential form steps.
type Steps struct {
	PositionKey string           `json:"position_key"`
	TotalSteps  int              `json:"total_steps"`
	Steps       []model.Template `json:"steps"`
}

// ResolveSteps returns every active template for the position, ordered
// by step_number with title as the tie-break, each with its questions
// and options eager-loaded. An unknown position yields an empty list.
//
// When includeAnswers is false, is_correct and option_points are
// stripped; this is the only variant that may serve unauthenticated
// callers.
func ResolveSteps(ctx context.Context, db *sql.DB, positionKey string, includeAnswers bool) (Steps, error) {
	steps := Steps{PositionKey: positionKey, Steps: []model.Template{}}

	rows, err := db.QueryContext(ctx, `
		SELECT id
		FROM questionnaire_template
		WHERE position_key = ?
			AND is_active = 1
		ORDER BY step_number, title, id`,
		positionKey,
	)
	if err != nil {
		return steps, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return steps, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return steps, err
	}

	for _, id := range ids {
		template, err := loadTemplate(ctx, db, id)
		if err != nil {
			return steps, err
		}
		if !includeAnswers {
			stripAnswers(template)
		}
		steps.Steps = append(steps.Steps, *template)
	}
	steps.TotalSteps = len(steps.Steps)
	return steps, nil
}

func stripAnswers(t *model.Template) {
	for i := range t.Questions {
		for j := range t.Questions[i].Options {
			t.Questions[i].Options[j].IsCorrect = nil
			t.Questions[i].Options[j].OptionPoints = nil
		}
	}
}
