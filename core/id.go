package core

import "github.com/google/uuid"

func newRunID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return "run-unknown"
	}
	return id.String()
}
