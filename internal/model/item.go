package model

import (
	"time"
)

// An Item represents a database record and the rendered API response.
// Its identity is supplied by the client, not generated server-side.
type Item struct {
	ID          int        `json:"id"          msgpack:"id"          storm:"id"`
	Name        string     `json:"name"        msgpack:"name"`
	Description *string    `json:"description" msgpack:"description"`
	CreatedAt   *time.Time `json:"created_at"  msgpack:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"  msgpack:"updated_at"`
}
