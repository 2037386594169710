package models

import "time"

type Job struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Title       string    `json:"title" dynamodbav:"title"`
	CompanyName string    `json:"companyName" dynamodbav:"company_name"`
	Location    string    `json:"location" dynamodbav:"location"`
	Stipend     string    `json:"stipend,omitempty" dynamodbav:"stipend,omitempty"`
	Duration    string    `json:"duration,omitempty" dynamodbav:"duration,omitempty"`
	Description string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	PostedAt    time.Time `json:"posted_at" dynamodbav:"posted_at"`
}

func (j *Job) GetPK() string {
	return "JOB#" + j.ID
}

func (j *Job) GetSK() string {
	return "METADATA"
}
