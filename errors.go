package snapgram

import "errors"

// Common errors used throughout the snapgram package
var (
	// ErrTrailingInput is returned when text remains after one parsed unit.
	ErrTrailingInput = errors.New("unexpected trailing input")
	// ErrEvaluation carries the message of an Error result out of Run.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrUnknownLanguage indicates a builtin grammar name that is not registered.
	ErrUnknownLanguage = errors.New("unknown language")
)
