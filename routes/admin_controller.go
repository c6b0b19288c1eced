package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/pinte/recruiting/app"
	"github.com/pinte/recruiting/httpx"
	"github.com/pinte/recruiting/log"
	"github.com/pinte/recruiting/model"
	"github.com/pinte/recruiting/questionnaire"
	"github.com/pinte/recruiting/scoring"
)

func CreateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		template := model.Template{}
		err := render.DecodeJSON(r.Body, &template)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if template.StepNumber < 1 {
			template.StepNumber = 1
		}
		if msg := validateTemplateConfig(template); msg != "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.create_template", msg)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var templateId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO questionnaire_template (position_key, title, description, step_number, is_active)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			template.PositionKey,
			template.Title,
			template.Description,
			template.StepNumber,
			template.IsActive,
		).Scan(&templateId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_template", err)
			return
		}

		questionStmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question (template_id, question_text, question_type, scoring_mode, points, display_order)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_template.questions.prepare", err)
			return
		}
		defer questionStmt.Close()

		optionStmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question_option (question_id, option_text, is_correct, option_points, display_order)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_template.options.prepare", err)
			return
		}
		defer optionStmt.Close()

		for _, q := range template.Questions {
			var questionId int
			err = questionStmt.QueryRowContext(r.Context(),
				templateId, q.QuestionText, q.QuestionType, q.ScoringMode, q.Points, q.Order,
			).Scan(&questionId)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_template.questions.insert", err)
				return
			}

			for _, opt := range q.Options {
				_, err = optionStmt.ExecContext(r.Context(),
					questionId, opt.OptionText, optCorrect(opt), optPoints(opt), opt.Order,
				)
				if err != nil {
					httpx.LogInternalError(w, "db.insert_template.options.insert", err)
					return
				}
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_template.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": templateId,
		})
	}
}

func ListTemplates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT id, position_key, title, description, step_number, version, is_active
			FROM questionnaire_template`
		args := []any{}
		if positionKey := r.URL.Query().Get("position_key"); positionKey != "" {
			query += " WHERE position_key = ?"
			args = append(args, positionKey)
		}
		query += " ORDER BY position_key, step_number, title"

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_templates", err)
			return
		}
		defer rows.Close()

		templates := []model.Template{}
		for rows.Next() {
			t := model.Template{}
			err = rows.Scan(&t.ID, &t.PositionKey, &t.Title, &t.Description, &t.StepNumber, &t.Version, &t.IsActive)
			if err != nil {
				httpx.LogInternalError(w, "db.get_templates.scan", err)
				return
			}
			templates = append(templates, t)
		}

		render.JSON(w, r, map[string]any{
			"templates": templates,
		})
	}
}

// GetTemplateById is the privileged retrieval path: it includes
// is_correct and option_points.
func GetTemplateById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		template, err := questionnaire.GetTemplate(r.Context(), app.DB, templateId)
		if errors.Is(err, questionnaire.ErrTemplateNotFound) {
			httpx.LogNotFound(w, "get_template", templateId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_template", err)
			return
		}

		render.JSON(w, r, template)
	}
}

func UpdateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		template := model.Template{}
		err = render.DecodeJSON(r.Body, &template)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if template.StepNumber < 1 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.update_template", "step_number must be >= 1")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE questionnaire_template
			SET
				position_key = ?,
				title = ?,
				description = ?,
				step_number = ?,
				is_active = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			template.PositionKey,
			template.Title,
			template.Description,
			template.StepNumber,
			template.IsActive,
			templateId,
			template.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_template", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_template.verify.conflict")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteTemplate refuses to remove a template that responses still
// reference; those are deactivated instead.
func DeleteTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var responseCount int
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM questionnaire_response
			WHERE template_id = ?`,
			templateId,
		).Scan(&responseCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_template.responses", err)
			return
		}
		if responseCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"db.delete_template.referenced",
				"template has %d responses; deactivate it instead", responseCount)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM questionnaire_template WHERE id = ?`,
			templateId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_template", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_template.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_template", templateId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func SetTemplateActive(app app.App, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE questionnaire_template
			SET is_active = ?
			WHERE id = ?`,
			active, templateId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.active", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.active.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_template.active", templateId)
			return
		}

		status := "deactivated"
		if active {
			status = "activated"
		}
		render.JSON(w, r, map[string]any{
			"status": status,
		})
	}
}

func UpdateTemplateStep(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		body := struct {
			StepNumber int `json:"step_number"`
		}{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.StepNumber < 1 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.update_step", "step_number must be >= 1")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE questionnaire_template
			SET step_number = ?
			WHERE id = ?`,
			body.StepNumber, templateId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.step", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_template.step.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_template.step", templateId)
			return
		}

		render.JSON(w, r, map[string]any{
			"status":      "updated",
			"step_number": body.StepNumber,
		})
	}
}

func GetTemplateStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var totalResponses int
		var avgScore, avgPercentage float64
		err = app.QueryRowContext(r.Context(), `
			SELECT
				COUNT(*),
				COALESCE(AVG(CAST(score AS REAL)), 0),
				COALESCE(AVG(
					CASE WHEN CAST(max_score AS REAL) > 0
						THEN 100.0 * CAST(score AS REAL) / CAST(max_score AS REAL)
						ELSE 0
					END), 0)
			FROM questionnaire_response
			WHERE template_id = ?`,
			templateId,
		).Scan(&totalResponses, &avgScore, &avgPercentage)
		if err != nil {
			httpx.LogInternalError(w, "db.get_template_stats", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"total_responses":    totalResponses,
			"average_score":      avgScore,
			"average_percentage": avgPercentage,
		})
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templateId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		question := model.Question{}
		err = render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if msg := validateQuestionConfig(question); msg != "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.create_question", msg)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var questionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO question (template_id, question_text, question_type, scoring_mode, points, display_order)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			templateId, question.QuestionText, question.QuestionType,
			question.ScoringMode, question.Points, question.Order,
		).Scan(&questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO question_option (question_id, option_text, is_correct, option_points, display_order)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.options.prepare", err)
			return
		}
		defer stmt.Close()

		for _, opt := range question.Options {
			_, err = stmt.ExecContext(r.Context(),
				questionId, opt.OptionText, optCorrect(opt), optPoints(opt), opt.Order,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_question.options.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.commit", err)
			return
		}

		// a new question changes every stored response's max_score
		failed := recalcTemplate(r, app, templateId)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":            questionId,
			"recalc_failed": failed,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		question := model.Question{}
		err = render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if msg := validateQuestionConfig(question); msg != "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.update_question", msg)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE question
			SET
				question_text = ?,
				question_type = ?,
				scoring_mode = ?,
				points = ?,
				display_order = ?
			WHERE id = ?`,
			question.QuestionText, question.QuestionType, question.ScoringMode,
			question.Points, question.Order, questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_question", questionId)
			return
		}

		failed := recalcQuestion(r, app, questionId)

		render.JSON(w, r, map[string]any{
			"status":        "updated",
			"recalc_failed": failed,
		})
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// capture the owner before the row goes away
		var templateId int
		err = app.QueryRowContext(r.Context(),
			"SELECT template_id FROM question WHERE id = ?", questionId,
		).Scan(&templateId)
		if err != nil {
			httpx.LogNotFound(w, "delete_question", questionId)
			return
		}

		// recorded selections keep the question referenced
		var selectionCount int
		err = app.QueryRowContext(r.Context(),
			"SELECT COUNT(*) FROM selected_option WHERE question_id = ?", questionId,
		).Scan(&selectionCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question.selections", err)
			return
		}
		if selectionCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"db.delete_question.referenced",
				"question is referenced by %d recorded selections", selectionCount)
			return
		}

		_, err = app.ExecContext(r.Context(), "DELETE FROM question WHERE id = ?", questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question", err)
			return
		}

		failed := recalcTemplate(r, app, templateId)

		render.JSON(w, r, map[string]any{
			"status":        "deleted",
			"recalc_failed": failed,
		})
	}
}

func CreateOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		opt := model.Option{}
		err = render.DecodeJSON(r.Body, &opt)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if optPoints(opt).IsNegative() {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.create_option", "option_points must be >= 0")
			return
		}

		var optionId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO question_option (question_id, option_text, is_correct, option_points, display_order)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			questionId, opt.OptionText, optCorrect(opt), optPoints(opt), opt.Order,
		).Scan(&optionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_option", err)
			return
		}

		failed := recalcQuestion(r, app, questionId)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":            optionId,
			"recalc_failed": failed,
		})
	}
}

func UpdateOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		opt := model.Option{}
		err = render.DecodeJSON(r.Body, &opt)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if optPoints(opt).IsNegative() {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.update_option", "option_points must be >= 0")
			return
		}

		var questionId int
		err = app.QueryRowContext(r.Context(),
			"SELECT question_id FROM question_option WHERE id = ?", optionId,
		).Scan(&questionId)
		if err != nil {
			httpx.LogNotFound(w, "update_option", optionId)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE question_option
			SET
				option_text = ?,
				is_correct = ?,
				option_points = ?,
				display_order = ?
			WHERE id = ?`,
			opt.OptionText, optCorrect(opt), optPoints(opt), opt.Order, optionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_option", err)
			return
		}

		failed := recalcQuestion(r, app, questionId)

		render.JSON(w, r, map[string]any{
			"status":        "updated",
			"recalc_failed": failed,
		})
	}
}

func DeleteOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var questionId int
		err = app.QueryRowContext(r.Context(),
			"SELECT question_id FROM question_option WHERE id = ?", optionId,
		).Scan(&questionId)
		if err != nil {
			httpx.LogNotFound(w, "delete_option", optionId)
			return
		}

		// recorded selections keep the option referenced; refuse rather
		// than orphan them
		var selectionCount int
		err = app.QueryRowContext(r.Context(),
			"SELECT COUNT(*) FROM selected_option WHERE option_id = ?", optionId,
		).Scan(&selectionCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_option.selections", err)
			return
		}
		if selectionCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel,
				"db.delete_option.referenced",
				"option is referenced by %d recorded selections", selectionCount)
			return
		}

		_, err = app.ExecContext(r.Context(), "DELETE FROM question_option WHERE id = ?", optionId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_option", err)
			return
		}

		failed := recalcQuestion(r, app, questionId)

		render.JSON(w, r, map[string]any{
			"status":        "deleted",
			"recalc_failed": failed,
		})
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT id, candidate_id, template_id, position_key, score, max_score, submitted_at
			FROM questionnaire_response
			WHERE 1=1`
		args := []any{}
		if candidateId := r.URL.Query().Get("candidate_id"); candidateId != "" {
			query += " AND candidate_id = ?"
			args = append(args, candidateId)
		}
		if positionKey := r.URL.Query().Get("position_key"); positionKey != "" {
			query += " AND position_key = ?"
			args = append(args, positionKey)
		}
		query += " ORDER BY submitted_at DESC"

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []model.Response{}
		for rows.Next() {
			resp := model.Response{}
			err = rows.Scan(
				&resp.ID, &resp.CandidateID, &resp.TemplateID, &resp.PositionKey,
				&resp.Score, &resp.MaxScore, &resp.SubmittedAt,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}
			resp.Percentage = scoring.Percentage(resp.Score, resp.MaxScore).Round(2)
			responses = append(responses, resp)
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func AnalyticsByPosition(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT
				resp.position_key,
				t.title,
				COUNT(*),
				AVG(CAST(resp.score AS REAL)),
				AVG(CAST(resp.max_score AS REAL)),
				AVG(
					CASE WHEN CAST(resp.max_score AS REAL) > 0
						THEN 100.0 * CAST(resp.score AS REAL) / CAST(resp.max_score AS REAL)
						ELSE 0
					END)
			FROM questionnaire_response resp
			INNER JOIN questionnaire_template t ON (t.id = resp.template_id)`
		args := []any{}
		if positionKey := r.URL.Query().Get("position_key"); positionKey != "" {
			query += " WHERE resp.position_key = ?"
			args = append(args, positionKey)
		}
		query += `
			GROUP BY resp.position_key, resp.template_id
			ORDER BY resp.position_key`

		rows, err := app.QueryContext(r.Context(), query, args...)
		if err != nil {
			httpx.LogInternalError(w, "db.get_analytics", err)
			return
		}
		defer rows.Close()

		type positionStats struct {
			PositionKey       string  `json:"position_key"`
			TemplateTitle     string  `json:"template_title"`
			TotalResponses    int     `json:"total_responses"`
			AverageScore      float64 `json:"avg_score"`
			AverageMaxScore   float64 `json:"avg_max_score"`
			AveragePercentage float64 `json:"avg_percentage"`
		}

		stats := []positionStats{}
		for rows.Next() {
			s := positionStats{}
			err = rows.Scan(
				&s.PositionKey, &s.TemplateTitle, &s.TotalResponses,
				&s.AverageScore, &s.AverageMaxScore, &s.AveragePercentage,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_analytics.scan", err)
				return
			}
			stats = append(stats, s)
		}

		render.JSON(w, r, stats)
	}
}

func OptionDistribution(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId := r.URL.Query().Get("question_id")
		if questionId == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.option_distribution", "question_id query parameter is required")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT
				o.id, o.option_text, o.is_correct,
				COUNT(sel.id)
			FROM question_option o
			LEFT OUTER JOIN selected_option sel ON (sel.option_id = o.id)
			WHERE o.question_id = ?
			GROUP BY o.id
			ORDER BY COUNT(sel.id) DESC, o.display_order`,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.option_distribution", err)
			return
		}
		defer rows.Close()

		type optionCount struct {
			OptionID       int    `json:"option_id"`
			OptionText     string `json:"option_text"`
			IsCorrect      bool   `json:"is_correct"`
			SelectionCount int    `json:"selection_count"`
		}

		counts := []optionCount{}
		for rows.Next() {
			c := optionCount{}
			err = rows.Scan(&c.OptionID, &c.OptionText, &c.IsCorrect, &c.SelectionCount)
			if err != nil {
				httpx.LogInternalError(w, "db.option_distribution.scan", err)
				return
			}
			counts = append(counts, c)
		}

		render.JSON(w, r, counts)
	}
}

func CreatePosition(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		position := model.Position{IsActive: true}
		err := render.DecodeJSON(r.Body, &position)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if position.Name == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.create_position", "name is required")
			return
		}

		var positionId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO position (name, is_active) VALUES (?, ?)
			RETURNING id`,
			position.Name, position.IsActive,
		).Scan(&positionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_position", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": positionId,
		})
	}
}

func UpdatePosition(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positionId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		position := model.Position{}
		err = render.DecodeJSON(r.Body, &position)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE position
			SET name = ?, is_active = ?
			WHERE id = ?`,
			position.Name, position.IsActive, positionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_position", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_position.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_position", positionId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func validateTemplateConfig(template model.Template) string {
	if template.PositionKey == "" {
		return "position_key is required"
	}
	if template.Title == "" {
		return "title is required"
	}
	for _, q := range template.Questions {
		if msg := validateQuestionConfig(q); msg != "" {
			return msg
		}
	}
	return ""
}

func validateQuestionConfig(q model.Question) string {
	if q.QuestionText == "" {
		return "question_text is required"
	}
	if !q.QuestionType.Valid() {
		return "invalid question_type: " + string(q.QuestionType)
	}
	if !q.ScoringMode.Valid() {
		return "invalid scoring_mode: " + string(q.ScoringMode)
	}
	if q.Points.IsNegative() {
		return "points must be >= 0"
	}
	for _, opt := range q.Options {
		if optPoints(opt).IsNegative() {
			return "option_points must be >= 0"
		}
	}
	return ""
}

func recalcQuestion(r *http.Request, app app.App, questionId int) []int {
	failed, err := questionnaire.RecalculateForQuestion(r.Context(), app.DB, questionId)
	if err != nil {
		log.Errorf("recalc.question: %d: %s", questionId, err)
	}
	return failed
}

func recalcTemplate(r *http.Request, app app.App, templateId int) []int {
	failed, err := questionnaire.RecalculateTemplateResponses(r.Context(), app.DB, templateId)
	if err != nil {
		log.Errorf("recalc.template: %d: %s", templateId, err)
	}
	return failed
}

func optCorrect(opt model.Option) bool {
	return opt.IsCorrect != nil && *opt.IsCorrect
}

func optPoints(opt model.Option) decimal.Decimal {
	if opt.OptionPoints == nil {
		return decimal.Decimal{}
	}
	return *opt.OptionPoints
}
