// Package project stores named script documents. Only the raw script
// text is persisted; segments, scenes and reports are always derived
// by recompiling.
package project

import (
	"crypto/rand"
	"fmt"
	"time"
)

type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
