package service

import "errors"

var (
	ErrMissingCandidateID  = errors.New("candidate_id is required")
	ErrMissingAnswers      = errors.New("answers are required")
	ErrMissingAnswerFields = errors.New("scenario_id and option_id are required")
	ErrResultNotFound      = errors.New("result not found")
	ErrScenarioNotFound    = errors.New("scenario not found")
	ErrEmptyImport         = errors.New("import file has no scenarios")
)
