package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"taskflow/internal/controllers"
)

var errNotLoggedIn = errors.New("not logged in, run: taskflow login")

// sessionExpired is the navigator for the CLI: there is no login screen to
// go back to, so the user is told how to get one.
type sessionExpired struct{}

func (sessionExpired) ToLogin() {
	fmt.Fprintln(os.Stderr, "Session expired. Run: taskflow login")
}

// confirmer asks on the terminal unless --yes was given.
func (c *cli) confirmer() controllers.Confirmer {
	return controllers.ConfirmFunc(func(prompt string) (bool, error) {
		if c.yes {
			return true, nil
		}
		var ok bool
		err := huh.NewConfirm().
			Title(prompt).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok).
			Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	})
}

func promptInput(title string, password bool, value *string) error {
	in := huh.NewInput().Title(title).Value(value)
	if password {
		in = in.EchoMode(huh.EchoModePassword)
	}
	if err := in.Run(); err != nil {
		return err
	}
	*value = strings.TrimSpace(*value)
	return nil
}
