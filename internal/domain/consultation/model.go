package consultation

import "time"

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Consultation is one intake episode: a chosen primary concern plus the
// follow-up answers submitted against it. The account reference is optional
// because deleting an account keeps its consultations.
type Consultation struct {
	ID                int64     `db:"id" json:"id"`
	AccountID         *int64    `db:"account_id" json:"account_id,omitempty"`
	FormID            int64     `db:"form_id" json:"form_id"`
	PrimaryQuestionID int64     `db:"primary_question_id" json:"primary_question_id"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// FollowupAnswer is one answer row created during the follow-up step. The
// file path, when set, points to an upload stored by the uploads package.
type FollowupAnswer struct {
	ID             int64   `db:"id" json:"id"`
	ConsultationID int64   `db:"consultation_id" json:"consultation_id"`
	QuestionID     int64   `db:"question_id" json:"question_id"`
	TextAnswer     *string `db:"text_answer" json:"text_answer,omitempty"`
	FilePath       *string `db:"file_path" json:"file_path,omitempty"`
}

// ConsultAnswer is the legacy free-text answer shape kept for consultations
// recorded before the follow-up flow existed.
type ConsultAnswer struct {
	ID         int64   `db:"id" json:"id"`
	AccountID  *int64  `db:"account_id" json:"account_id,omitempty"`
	QuestionID int64   `db:"question_id" json:"question_id"`
	AnswerText *string `db:"answer_text" json:"answer_text,omitempty"`
}

// Summary is the admin list projection. Fields resolved from related rows
// degrade to null when those rows are gone.
type Summary struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username"`
	Concern   *string   `json:"concern"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountInfo is the public slice of the owning account shown to admins.
type AccountInfo struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// AnswerDetail pairs a follow-up answer with its question's prompt.
type AnswerDetail struct {
	QuestionID int64   `json:"question_id"`
	Prompt     *string `json:"prompt"`
	TextAnswer *string `json:"text_answer"`
	FilePath   *string `json:"file_path"`
}

// Detail is the full admin view of one consultation.
type Detail struct {
	ID            int64          `json:"id"`
	Account       *AccountInfo   `json:"account"`
	PrimaryPrompt *string        `json:"primary_prompt"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	LegacyAnswer  *string        `json:"legacy_answer"`
	Answers       []AnswerDetail `json:"answers"`
}
