package model

// A User represents a database record.
// Users are provisioned by the operator, there is no self-registration.
type User struct {
	Base `msgpack:",inline" storm:"inline"`

	Username string `msgpack:"username" storm:"unique"`
	Password string `msgpack:"password,omitempty"`

	// Unix timestamp of the last password change. Tokens issued before it are revoked.
	PasswordUpdatedAt int64 `msgpack:"password_updated_at"`
}
