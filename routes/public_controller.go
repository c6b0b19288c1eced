package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/pinte/recruiting/app"
	"github.com/pinte/recruiting/httpx"
	"github.com/pinte/recruiting/log"
	"github.com/pinte/recruiting/model"
	"github.com/pinte/recruiting/questionnaire"
)

// ListPositions is step 0 of the application form: the open positions a
// candidate can apply for.
func ListPositions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name
			FROM position
			WHERE is_active = 1
			ORDER BY name`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_positions", err)
			return
		}
		defer rows.Close()

		positions := []model.Position{}
		for rows.Next() {
			p := model.Position{IsActive: true}
			if err = rows.Scan(&p.ID, &p.Name); err != nil {
				httpx.LogInternalError(w, "db.get_positions.scan", err)
				return
			}
			positions = append(positions, p)
		}

		render.JSON(w, r, map[string]any{
			"positions": positions,
		})
	}
}

func CreateCandidate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidate := model.Candidate{}
		err := render.DecodeJSON(r.Body, &candidate)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if candidate.FullName == "" || candidate.PositionApplied == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.create_candidate", "full_name and position_applied are required")
			return
		}

		var candidateId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO candidate (full_name, phone, email, position_applied, status)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			candidate.FullName,
			candidate.Phone,
			candidate.Email,
			candidate.PositionApplied,
			model.StatusIncomplete,
		).Scan(&candidateId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_candidate", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": candidateId,
		})
	}
}

// GetQuestionnaireSteps resolves the ordered questionnaire steps for a
// position. Correct answers and option weights never leave this
// endpoint; admins use the privileged template routes instead.
func GetQuestionnaireSteps(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positionKey := r.URL.Query().Get("position_key")
		if positionKey == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"request.get_steps", "position_key query parameter is required")
			return
		}

		steps, err := questionnaire.ResolveSteps(r.Context(), app.DB, positionKey, false)
		if err != nil {
			httpx.LogInternalError(w, "db.get_steps", err)
			return
		}

		render.JSON(w, r, steps)
	}
}

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := questionnaire.SubmitRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		response, err := questionnaire.Submit(r.Context(), app.DB, req)
		if err != nil {
			var validation *questionnaire.ValidationError
			switch {
			case errors.As(err, &validation):
				log.Debug("submit_response.validation:", validation)
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, map[string]any{
					"error":       validation.Reason,
					"question_id": validation.QuestionID,
					"option_id":   validation.OptionID,
				})
			case errors.Is(err, questionnaire.ErrTemplateNotFound):
				httpx.LogNotFound(w, "submit_response.template", req.TemplateID)
			case errors.Is(err, questionnaire.ErrCandidateNotFound):
				httpx.LogNotFound(w, "submit_response.candidate", req.CandidateID)
			default:
				httpx.LogInternalError(w, "db.submit_response", err)
			}
			return
		}

		response.Percentage = response.Percentage.Round(2)
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, response)
	}
}
