package types

import "time"

// Profile is a resident profile. The statement pipeline only reads it.
type Profile struct {
	ID            string    `db:"id"`
	AccountNumber string    `db:"account_number"`
	FirstName     *string   `db:"first_name"`
	FullName      *string   `db:"full_name"`
	DOB           *string   `db:"dob"`
	Email         *string   `db:"email"`
	CreatedAt     time.Time `db:"created_at"`
}
