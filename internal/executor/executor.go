// Package executor performs the OS-level effect of dispatched actions.
package executor

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
)

var (
	// ErrUnknownAction is returned for an action kind an executor cannot perform.
	ErrUnknownAction = errors.New("unknown action")
	// ErrAppNotFound is returned when the launch target does not exist.
	ErrAppNotFound = errors.New("application not found")
)

// Executor performs actions. Implementations must be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, a action.Action) error
}

// Kinds of executor selectable from configuration.
const (
	KindNative = "native"
	KindPlugin = "plugin"
	KindLog    = "log"
)

// LogExecutor only logs actions. It is the dry-run executor.
type LogExecutor struct{}

// Execute logs a.
func (LogExecutor) Execute(ctx context.Context, a action.Action) error {
	if a.Kind == action.KindNone {
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
	log.WithFields(log.Fields{
		"gesture": a.Gesture.String(),
		"action":  a.Kind.String(),
	}).Infof("Dry run: %s", a)
	return nil
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, a action.Action) error

// Execute calls f.
func (f Func) Execute(ctx context.Context, a action.Action) error {
	return f(ctx, a)
}
