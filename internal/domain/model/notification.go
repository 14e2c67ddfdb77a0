package model

import "time"

type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Link    string    `json:"link"`
	AddedOn time.Time `json:"added_on"`
}
