package questionnaire

import (
	"context"
	"database/sql"

	"github.com/pinte/recruiting/log"
	"github.com/pinte/recruiting/scoring"
)

// RecalculateForQuestion re-scores every response of the template that
// owns the question. Admin write paths call this right after updating a
// question's points/scoring_mode or an option's is_correct/
// option_points; there is no hidden dispatch.
func RecalculateForQuestion(ctx context.Context, db *sql.DB, questionID int) (failed []int, err error) {
	var templateID int
	err = db.QueryRowContext(ctx,
		"SELECT template_id FROM question WHERE id = ?", questionID,
	).Scan(&templateID)
	if err != nil {
		return nil, err
	}
	return RecalculateTemplateResponses(ctx, db, templateID)
}

// RecalculateTemplateResponses recomputes score/max_score of every
// stored response of the template from its recorded selections and the
// configuration as of now. Selections are never touched, so the same
// answers can be re-scored as the rubric evolves, and re-running with
// no config change is a no-op on the numbers.
//
// Each response runs in its own transaction: one failure is logged and
// reported without aborting the rest. The ids that failed are returned
// for retry.
func RecalculateTemplateResponses(ctx context.Context, db *sql.DB, templateID int) (failed []int, err error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id FROM questionnaire_response WHERE template_id = ?", templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responseIDs []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		responseIDs = append(responseIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(responseIDs) == 0 {
		return nil, nil
	}

	log.Debugf("recalc: template %d: %d responses", templateID, len(responseIDs))

	for _, responseID := range responseIDs {
		if err := recalculateResponse(ctx, db, templateID, responseID); err != nil {
			log.Errorf("recalc.response: %d: %s", responseID, err)
			failed = append(failed, responseID)
		}
	}
	return failed, nil
}

func recalculateResponse(ctx context.Context, db *sql.DB, templateID, responseID int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	template, err := loadTemplate(ctx, tx, templateID)
	if err != nil {
		return err
	}
	selections, err := loadSelections(ctx, tx, responseID)
	if err != nil {
		return err
	}

	result := scoring.ResponseScore(template.Questions, selections)
	_, err = tx.ExecContext(ctx, `
		UPDATE questionnaire_response
		SET score = ?, max_score = ?
		WHERE id = ?`,
		result.Score, result.MaxScore, responseID,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// RecalculateAll sweeps every template that has responses. Used by the
// -recalc maintenance flag.
func RecalculateAll(ctx context.Context, db *sql.DB) (failed []int, err error) {
	rows, err := db.QueryContext(ctx,
		"SELECT DISTINCT template_id FROM questionnaire_response",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templateIDs []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		templateIDs = append(templateIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, templateID := range templateIDs {
		f, err := RecalculateTemplateResponses(ctx, db, templateID)
		if err != nil {
			return failed, err
		}
		failed = append(failed, f...)
	}
	return failed, nil
}
