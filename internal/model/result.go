package model

import "time"

// Rating is the ordinal classification of a candidate's total score
type Rating string

const (
	RatingHighlyRecommended Rating = "Highly Recommended"
	RatingRecommended       Rating = "Recommended"
	RatingBorderline        Rating = "Borderline"
	RatingNotRecommended    Rating = "Not Recommended"
)

// ResultStatus represents the lifecycle state of a stored result.
// A candidate without a record has not started.
type ResultStatus string

const (
	ResultStatusInProgress ResultStatus = "in_progress"
	ResultStatusCompleted  ResultStatus = "completed"
)

// Answer is one chosen option for one scenario
type Answer struct {
	ScenarioID string    `json:"scenario_id"`
	OptionID   string    `json:"option_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CandidateResult is the persisted test lifecycle and outcome of one candidate
type CandidateResult struct {
	CandidateID string       `json:"candidate_id"`
	TestID      string       `json:"test_id"`
	Status      ResultStatus `json:"status"`
	StartedAt   *time.Time   `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	Answers     []Answer     `json:"answers"`
	TotalScores *TotalScores `json:"total_scores"`
	Rating      Rating       `json:"rating,omitempty"`
}

// UpsertAnswer replaces the answer for a.ScenarioID, or appends it
func (r *CandidateResult) UpsertAnswer(a Answer) {
	for i := range r.Answers {
		if r.Answers[i].ScenarioID == a.ScenarioID {
			r.Answers[i] = a
			return
		}
	}
	r.Answers = append(r.Answers, a)
}

// StartResponse is returned when a candidate starts or restarts a test
type StartResponse struct {
	Success     bool   `json:"success"`
	TestID      string `json:"test_id"`
	CandidateID string `json:"candidate_id"`
}

// SubmitResponse is returned after a final submission is scored
type SubmitResponse struct {
	Success     bool         `json:"success"`
	TestID      string       `json:"test_id"`
	TotalScores *TotalScores `json:"total_scores"`
	Rating      Rating       `json:"rating"`
}

// BoardEntry is one row of the rating leaderboard
type BoardEntry struct {
	CandidateID string `json:"candidate_id"`
	Total       int    `json:"total"`
	Rank        int    `json:"rank"`
}
