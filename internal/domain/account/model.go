package account

import "time"

// Account is a registered user. Patients sign up through the web flow;
// administrators are provisioned via the token API or the seeder.
type Account struct {
	ID                int64     `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	Email             *string   `db:"email" json:"email,omitempty"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FirstName         *string   `db:"first_name" json:"first_name,omitempty"`
	LastName          *string   `db:"last_name" json:"last_name,omitempty"`
	IsAdmin           bool      `db:"is_admin" json:"is_admin"`
	HasMedicalHistory bool      `db:"has_medical_history" json:"has_medical_history"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
