package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	DefaultIDSize = 21
	RequestIDSize = 16

	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewID returns an alphanumeric nanoid of the given length, DefaultIDSize
// when size is not positive.
func NewID(size int) (string, error) {
	if size <= 0 {
		size = DefaultIDSize
	}

	return gonanoid.Generate(idAlphabet, size)
}

// RequestID is the id attached to every HTTP request and its log line.
func RequestID() string {
	return gonanoid.MustGenerate(idAlphabet, RequestIDSize)
}
