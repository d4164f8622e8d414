package user

import (
	"net/url"
	"strconv"
)

// Filter holds equality conditions for looking up a single user.
// Zero-valued fields are not part of the condition.
type Filter struct {
	FirstName string
	LastName  string
	Age       *int
}

// IsEmpty reports whether the filter has no conditions at all.
func (f Filter) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == "" && f.Age == nil
}

// Key returns a canonical, order-stable representation of the filter,
// e.g. "age=28&first_name=Nick". Equal filters always produce equal keys.
func (f Filter) Key() string {
	v := url.Values{}
	if f.FirstName != "" {
		v.Set("first_name", f.FirstName)
	}
	if f.LastName != "" {
		v.Set("last_name", f.LastName)
	}
	if f.Age != nil {
		v.Set("age", strconv.Itoa(*f.Age))
	}
	return v.Encode()
}
