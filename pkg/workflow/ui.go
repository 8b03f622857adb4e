package workflow

import (
	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Control is the save button of the form. It is only written by the
// controller.
type Control interface {
	SetSaveDisabled(disabled bool)
}

// Notifier shows a message to the user
type Notifier interface {
	Notify(level schema.Level, message string)
}

// Progress displays the transfer of the file
type Progress interface {
	// Start is called before the transfer of a file of the given size
	Start(name string, size int64)

	// Update is called with fractions in [0,1] which never decrease
	Update(fraction float64)

	// Done is called when the transfer completed
	Done()

	// Fail is called when the run failed
	Fail(err error)
}

// Navigator moves the user to another page
type Navigator interface {
	Navigate(target string)
}

// UI implements all the user interface collaborators
type UI interface {
	Control
	Notifier
	Progress
	Navigator
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	msgSuccess       = "Resource updated successfully"
	msgAlreadyStored = "File already exists in storage"
	msgNotActivated  = "Resource saved, but the dataset could not be made visible"
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE TYPES

// nopUI is used for collaborators which were not set
type nopUI struct{}

var _ UI = nopUI{}

func (nopUI) SetSaveDisabled(bool)        {}
func (nopUI) Notify(schema.Level, string) {}
func (nopUI) Start(string, int64)         {}
func (nopUI) Update(float64)              {}
func (nopUI) Done()                       {}
func (nopUI) Fail(error)                  {}
func (nopUI) Navigate(string)             {}
