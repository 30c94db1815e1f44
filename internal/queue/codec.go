package queue

import (
	"encoding/json"
	"fmt"
)

// Codec converts records to and from their stored string form
type Codec[T any] interface {
	Encode(record T) (string, error)
	Decode(data string) (T, error)
}

// JSONCodec stores records as compact JSON documents
type JSONCodec[T any] struct{}

// Encode marshals the record to compact JSON
func (JSONCodec[T]) Encode(record T) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(data), nil
}

// Decode unmarshals a stored JSON document
func (JSONCodec[T]) Decode(data string) (T, error) {
	var record T
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return record, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}
