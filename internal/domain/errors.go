package domain

import "errors"

// Stage names one step of an invocation.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageDecode Stage = "decode"
	StageStore  Stage = "store"
)

// Sentinels matched by StageError.Is, one per stage.
var (
	ErrFetch  = errors.New("fetch forecast")
	ErrDecode = errors.New("decode forecast")
	ErrStore  = errors.New("store forecast")
)

// StageError records which stage of an invocation failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's stage.
func (e *StageError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *StageError) sentinel() error {
	switch e.Stage {
	case StageFetch:
		return ErrFetch
	case StageDecode:
		return ErrDecode
	case StageStore:
		return ErrStore
	}
	return nil
}

// StageOf returns the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
