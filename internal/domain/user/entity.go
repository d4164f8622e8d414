package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        int64     // ID is the unique identifier for the user
	FirstName string    // FirstName is the given name of the user
	LastName  string    // LastName is the family name of the user
	Age       int       // Age of the user in years
	CreatedAt time.Time // CreatedAt is set by the store on insert
	UpdatedAt time.Time // UpdatedAt is set by the store on every write
}

// FullName returns the first and last name joined by a single space.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
