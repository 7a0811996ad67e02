package assets

import (
	"fmt"

	"github.com/pkg/errors"
)

// Failure kinds. Every StepError matches exactly one of them with errors.Is.
var (
	ErrSynthesis   = errors.New("speech synthesis failed")
	ErrImageDecode = errors.New("image decode failed")
	ErrLayout      = errors.New("invalid layout")
	ErrEncode      = errors.New("encode failed")
)

// Step names the builder stage an error came from.
type Step string

const (
	StepSynthesize  Step = "synthesize"
	StepDecodeImage Step = "decode_image"
	StepLayout      Step = "layout"
	StepRender      Step = "render"
	StepEncode      Step = "encode"
	StepTitleCard   Step = "title_card"
)

// Kind maps a step to its failure kind.
func (s Step) Kind() error {
	switch s {
	case StepSynthesize:
		return ErrSynthesis
	case StepDecodeImage:
		return ErrImageDecode
	case StepLayout, StepRender:
		return ErrLayout
	default:
		return ErrEncode
	}
}

// StepError carries the item and stage a build failed at.
type StepError struct {
	Step     Step
	Category string
	Keyword  string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s/%s: %s: %v", e.Category, e.Keyword, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *StepError) Is(target error) bool {
	return target == e.Step.Kind()
}
