package models

type Company struct {
	ID       string `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	About    string `json:"about,omitempty" dynamodbav:"about,omitempty"`
	Website  string `json:"website,omitempty" dynamodbav:"website,omitempty"`
	Location string `json:"location,omitempty" dynamodbav:"location,omitempty"`
}

func (c *Company) GetPK() string {
	return "COMPANY#" + c.ID
}

func (c *Company) GetSK() string {
	return "METADATA"
}
