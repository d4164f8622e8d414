package playground

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"dbplayground/internal/usecase/user"
)

// console serializes writes so concurrent tasks never interleave within a block.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

// writeLines writes every line as one contiguous block.
func (c *console) writeLines(lines ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range lines {
		if _, err := fmt.Fprintln(c.w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// Record is the rendered form of a user written to the console.
type Record struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Render returns the single-line JSON form of u.
func Render(u user.UserResponse) (string, error) {
	data, err := json.Marshal(Record{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render user %d: %w", u.ID, err)
	}
	return string(data), nil
}
