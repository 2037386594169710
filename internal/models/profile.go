package models

import "time"

// Profile holds the portal-facing details of a user, keyed by the same
// email that identifies the user record.
type Profile struct {
	Email           string    `json:"email" dynamodbav:"email"`
	Name            string    `json:"name" dynamodbav:"name"`
	About           string    `json:"about,omitempty" dynamodbav:"about,omitempty"`
	Skills          []string  `json:"skills,omitempty" dynamodbav:"skills,omitempty"`
	CurrentCity     string    `json:"currentCity,omitempty" dynamodbav:"current_city,omitempty"`
	Gender          string    `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	Language        string    `json:"language,omitempty" dynamodbav:"language,omitempty"`
	StudentType     string    `json:"studentType,omitempty" dynamodbav:"student_type,omitempty"`
	Preferences     []string  `json:"preferences,omitempty" dynamodbav:"preferences,omitempty"`
	PositionApplied string    `json:"positionApplied,omitempty" dynamodbav:"position_applied,omitempty"`
	WorkLocation    []string  `json:"workLocation,omitempty" dynamodbav:"work_location,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty" dynamodbav:"image_url,omitempty"`
	UpdatedAt       time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (p *Profile) GetPK() string {
	return "PROFILE#" + p.Email
}

func (p *Profile) GetSK() string {
	return "METADATA"
}
