package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Record is the unit persisted to the target table.
type Record struct {
	ID       string `dynamodbav:"id" json:"id"`
	Forecast string `dynamodbav:"forecast" json:"forecast"`
}

// IDGenerator returns a fresh record identifier on every call.
type IDGenerator func() string

// NewID returns a random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewRecord serializes doc into a Record keyed by id.
func NewRecord(id string, doc Document) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("new record: empty id")
	}
	forecast, err := doc.MarshalJSON()
	if err != nil {
		return Record{}, fmt.Errorf("new record %s: %w", id, err)
	}
	return Record{ID: id, Forecast: string(forecast)}, nil
}
