package bayes

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned when no trained model could be supplied
	// for a classification request.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrDimensionMismatch is returned when a vector length disagrees with the
	// vocabulary length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyModel is returned for models without classes or vocabulary terms.
	ErrEmptyModel = errors.New("empty model")

	// ErrCorruptModel is returned when a model violates a training-time
	// contract, e.g. a zero log-probability entry or duplicate labels. It
	// matches ErrDimensionMismatch under errors.Is.
	ErrCorruptModel = fmt.Errorf("%w: corrupt model", ErrDimensionMismatch)

	// ErrDuplicateTerm is returned when a vocabulary lists the same term twice.
	ErrDuplicateTerm = errors.New("duplicate vocabulary term")
)
