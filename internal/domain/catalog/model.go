package catalog

// ConsultForm groups the primary questions shown on the first intake step.
type ConsultForm struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// PrimaryQuestion is a top-level concern selectable on the first step.
type PrimaryQuestion struct {
	ID     int64  `db:"id" json:"id"`
	Prompt string `db:"prompt" json:"prompt"`
	FormID int64  `db:"form_id" json:"form_id"`
}

// FollowupQuestion is shown after its parent primary question is chosen.
type FollowupQuestion struct {
	ID               int64  `db:"id" json:"id"`
	Prompt           string `db:"prompt" json:"prompt"`
	ParentQuestionID int64  `db:"parent_question_id" json:"parent_question_id"`
}
