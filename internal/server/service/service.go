// Package service holds the business logic sitting between the HTTP handlers
// and the database. Request payloads are validated here, at the boundary, so
// storage code can assume well-formed values.
package service

type (
	// A Render is an arbitrary payload serializable in JSON by the API.
	Render interface{}

	// M is a convenience type for building JSON payloads.
	M map[string]interface{}
)
