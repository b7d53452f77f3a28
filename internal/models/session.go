package models

import "time"

// ProfileSnapshot holds the profile fields screens display without refetching.
type ProfileSnapshot struct {
	DisplayName   string `bson:"display_name" json:"displayName"`
	Email         string `bson:"email" json:"email"`
	ContactNumber string `bson:"contact_number" json:"contactNumber"`
	Address       string `bson:"address" json:"address"`
	AvatarURL     string `bson:"avatar_url" json:"avatarUrl,omitempty"`
}

// DraftStep is a stage of the document-request flow.
type DraftStep string

const (
	StepSelectType DraftStep = "select_type"
	StepDetails    DraftStep = "details"
	StepReview     DraftStep = "review"
	StepSubmitted  DraftStep = "submitted"
)

// DocumentRequestDraft is an in-progress document request.
type DocumentRequestDraft struct {
	ID           string    `bson:"id" json:"id"`
	Step         DraftStep `bson:"step" json:"step"`
	DocumentType string    `bson:"document_type" json:"documentType,omitempty"`
	Purpose      string    `bson:"purpose" json:"purpose,omitempty"`
	Quantity     int       `bson:"quantity" json:"quantity,omitempty"`
	Notes        string    `bson:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Session is the per-resident state the gateway keeps between screens.
type Session struct {
	ResidentID string                `bson:"_id" json:"residentId"`
	Profile    ProfileSnapshot       `bson:"profile" json:"profile"`
	Draft      *DocumentRequestDraft `bson:"draft,omitempty" json:"draft,omitempty"`
	UpdatedAt  time.Time             `bson:"updated_at" json:"updatedAt"`
}
