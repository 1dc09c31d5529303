package types

import "time"

type StatementStatus string

const (
	StatementStatusUploaded   StatementStatus = "uploaded"
	StatementStatusSent       StatementStatus = "sent"
	StatementStatusDownloaded StatementStatus = "downloaded"
)

// Statement tracks a single uploaded resident statement through delivery.
// OTPCode and OTPExpiresAt are either both set or both nil.
type Statement struct {
	ID               string          `db:"id" json:"id"`
	ProfileID        *string         `db:"profile_id" json:"profileId"`
	OriginalFilename string          `db:"original_filename" json:"originalFilename"`
	StoragePath      string          `db:"storage_path" json:"storagePath"`
	AccountNumber    *string         `db:"account_number" json:"accountNumber"`
	FirstName        *string         `db:"first_name" json:"firstName"`
	DOB              *string         `db:"dob" json:"dob"`
	MapConfidence    *float64        `db:"map_confidence" json:"mapConfidence"`
	Status           StatementStatus `db:"status" json:"status"`
	OTPCode          *string         `db:"otp_code" json:"-"`
	OTPExpiresAt     *time.Time      `db:"otp_expires_at" json:"otpExpiresAt"`
	SentAt           *time.Time      `db:"sent_at" json:"sentAt"`
	DownloadedAt     *time.Time      `db:"downloaded_at" json:"downloadedAt"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

// HasPasscode reports whether a deliverable passcode is stored on the statement.
func (s *Statement) HasPasscode() bool {
	return s.OTPCode != nil && s.OTPExpiresAt != nil
}

type MatchStatus string

const (
	MatchStatusMatched  MatchStatus = "matched"
	MatchStatusNotFound MatchStatus = "not_found"
)
