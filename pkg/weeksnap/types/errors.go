package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the capability layer or the rotator
// matches exactly one of these with errors.Is.
var (
	// ErrNotAVolume means the target path is offline or not a subvolume root.
	ErrNotAVolume = errors.New("not a btrfs volume")

	// ErrInspection means a subvolume's metadata could not be queried.
	ErrInspection = errors.New("subvolume inspection failed")

	// ErrCreation means a snapshot could not be created.
	ErrCreation = errors.New("snapshot creation failed")

	// ErrDeletion means a subvolume could not be deleted.
	ErrDeletion = errors.New("subvolume deletion failed")

	// ErrRename means a snapshot could not be moved into its slot.
	ErrRename = errors.New("snapshot rename failed")

	// ErrArgument means the command line was missing or malformed.
	ErrArgument = errors.New("invalid arguments")

	// ErrUnsupported means the platform has no btrfs support.
	ErrUnsupported = errors.New("btrfs is not supported on this platform")
)

// OpError records a failed filesystem operation together with its kind.
type OpError struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Path is the subvolume or path the operation targeted.
	Path string

	// Dest is the destination for two-path operations (rename).
	Dest string

	// Err is the underlying reason, possibly nil.
	Err error
}

// Error renders the message the CLI prints on failure.
func (e *OpError) Error() string {
	reason := ""
	if e.Err != nil {
		reason = e.Err.Error()
	}
	switch e.Kind {
	case ErrNotAVolume:
		return e.Path + " is offline or not a btrfs volume"
	case ErrInspection:
		return fmt.Sprintf("Inspecting subvolume %s failed(%s)", e.Path, reason)
	case ErrCreation:
		return fmt.Sprintf("Creating readonly snapshot %s failed(%s)", e.Path, reason)
	case ErrDeletion:
		return fmt.Sprintf("Deleting subvolume %s failed(%s)", e.Path, reason)
	case ErrRename:
		return fmt.Sprintf("Renaming %s to %s failed(%s)", e.Path, e.Dest, reason)
	default:
		if e.Kind == nil {
			return fmt.Sprintf("%s: %s", e.Path, reason)
		}
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, reason)
	}
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewOpError builds an OpError. If err already carries kind, it is returned
// unchanged so wrapping layers do not nest the same kind twice.
func NewOpError(kind error, path string, err error) error {
	if err != nil && errors.Is(err, kind) {
		return err
	}
	return &OpError{Kind: kind, Path: path, Err: err}
}

// NewRenameError builds an OpError of kind ErrRename.
func NewRenameError(src, dst string, err error) error {
	if err != nil && errors.Is(err, ErrRename) {
		return err
	}
	return &OpError{Kind: ErrRename, Path: src, Dest: dst, Err: err}
}

// KindOf returns the error kind carried by err, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrNotAVolume, ErrInspection, ErrCreation, ErrDeletion, ErrRename, ErrArgument} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
