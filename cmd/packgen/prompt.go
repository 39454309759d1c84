package main

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("aborted by user")

// confirmer asks yes/no questions. Tests substitute a canned answer.
type confirmer interface {
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

type surveyConfirmer struct{}

func (surveyConfirmer) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
		Help:    "Existing files with the same paths are replaced; other files are left alone.",
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, errAborted
		}
		return false, err
	}
	return out, nil
}
