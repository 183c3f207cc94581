package wizard

import "github.com/desertthunder/emusicvibe/internal/models"

// Step is the closed set of wizard states. Each case carries only the data that step needs,
// so a result screen without a result cannot be represented.
type Step interface {
	// Name is the lowercase step name: destination, view, mood, generating or result.
	Name() string
	isStep()
}

// PickDestination is the initial step.
type PickDestination struct{}

// PickView follows a destination pick.
type PickView struct{}

// PickMood follows a view pick. Picking a mood does not advance; generation is explicit.
type PickMood struct{}

// Generating holds the selection an in-flight generation was started with.
type Generating struct {
	Selection models.CompleteSelection
}

// ShowingResult holds a finished generation.
type ShowingResult struct {
	Selection models.CompleteSelection
	Result    models.GeneratedResult
}

func (PickDestination) Name() string { return "destination" }
func (PickView) Name() string        { return "view" }
func (PickMood) Name() string        { return "mood" }
func (Generating) Name() string      { return "generating" }
func (ShowingResult) Name() string   { return "result" }

func (PickDestination) isStep() {}
func (PickView) isStep()        {}
func (PickMood) isStep()        {}
func (Generating) isStep()      {}
func (ShowingResult) isStep()   {}

// StepNumber is the 1-based position of a picking step for the step indicator, 0 otherwise.
func StepNumber(s Step) int {
	switch s.(type) {
	case PickDestination:
		return 1
	case PickView:
		return 2
	case PickMood:
		return 3
	}
	return 0
}

// PickKind returns the option kind chosen at a picking step.
func PickKind(s Step) (models.OptionKind, bool) {
	switch s.(type) {
	case PickDestination:
		return models.KindDestination, true
	case PickView:
		return models.KindView, true
	case PickMood:
		return models.KindMood, true
	}
	return "", false
}

// AcceptsCustom reports whether free-text entry is offered at s.
func AcceptsCustom(s Step) bool {
	switch s.(type) {
	case PickDestination, PickView:
		return true
	}
	return false
}

// Headline is the prompt shown above the options of a picking step.
func Headline(s Step) string {
	switch s.(type) {
	case PickDestination:
		return "Where is your mind traveling?"
	case PickView:
		return "What do you see?"
	case PickMood:
		return "Choose your sonic palette."
	case Generating:
		return "Synthesizing Artist Profile"
	}
	return ""
}
