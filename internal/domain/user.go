package domain

import "time"

// User is a person documents can be routed to.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"Name"`
	Designation  string    `json:"Designation"`
	Office       string    `json:"Office"`
	Email        string    `json:"Email"`
	PasswordHash string    `json:"-"`
	CDate        time.Time `json:"cdate"`
}

// NewUser is the import payload for a single user.
type NewUser struct {
	Name        string `json:"Name"`
	Designation string `json:"Designation"`
	Office      string `json:"Office"`
	Email       string `json:"Email"`
	Password    string `json:"Password"`
}
