package models

import (
	"time"
)

type TokenInfo struct {
	StudentID       string    `json:"student_id"`
	ClassID         string    `json:"class_id"`
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
