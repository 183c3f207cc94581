package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	"github.com/desertthunder/emusicvibe/internal/wizard"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAdvance MsgKind = iota
	MsgProgressUpdate
	MsgGenerationDone
	MsgCredentialStatus
	MsgConnectionTested
	MsgExported
	MsgCopied
	MsgBrowserOpened
)

// generation tracks one in-flight job and the channels its goroutine reports on.
type generation struct {
	job      *wizard.Job
	progress chan tasks.ProgressUpdate
	done     chan Msg
}

type advanceData struct{ from string }

type progressData struct {
	gen    *generation
	update tasks.ProgressUpdate
}

type generationData struct {
	gen    *generation
	result *models.GeneratedResult
	err    error
}

type credentialData struct {
	ok  bool
	err error
}

type exportData struct {
	path string
	err  error
}

type browserData struct {
	url string
	err error
}

// advanceMsg is the constructor for [MsgAdvance]; from is the step that scheduled it.
func advanceMsg(from string) Msg {
	return Msg{kind: MsgAdvance, data: advanceData{from: from}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(gen *generation, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressData{gen: gen, update: update}}
}

// generationDoneMsg is the constructor for [MsgGenerationDone]
func generationDoneMsg(gen *generation, result *models.GeneratedResult, err error) Msg {
	return Msg{kind: MsgGenerationDone, data: generationData{gen: gen, result: result, err: err}}
}

// credentialStatusMsg is the constructor for [MsgCredentialStatus]
func credentialStatusMsg(ok bool, err error) Msg {
	return Msg{kind: MsgCredentialStatus, data: credentialData{ok: ok, err: err}}
}

// connectionTestedMsg is the constructor for [MsgConnectionTested]
func connectionTestedMsg(result services.ConnectionResult) Msg {
	return Msg{kind: MsgConnectionTested, data: result}
}

// exportedMsg is the constructor for [MsgExported]
func exportedMsg(path string, err error) Msg {
	return Msg{kind: MsgExported, data: exportData{path: path, err: err}}
}

// copiedMsg is the constructor for [MsgCopied]
func copiedMsg(err error) Msg {
	return Msg{kind: MsgCopied, data: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: browserData{url: url, err: err}}
}
