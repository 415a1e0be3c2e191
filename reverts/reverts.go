// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Code classifies why an operation was rejected.
type Code uint8

const (
	CodeUnknown Code = iota
	// CodeStage means the operation was attempted outside its legal stage window.
	CodeStage
	// CodeOwnership means the caller is not the recorded owner of the position.
	CodeOwnership
	// CodeInvariant means the operation would break an accounting invariant.
	CodeInvariant
	// CodeNotReady means an external precondition has not become true yet.
	CodeNotReady
	// CodeCollaborator means an external collaborator call failed.
	CodeCollaborator
)

func (c Code) String() string {
	switch c {
	case CodeStage:
		return "stage violation"
	case CodeOwnership:
		return "ownership violation"
	case CodeInvariant:
		return "invariant violation"
	case CodeNotReady:
		return "not ready"
	case CodeCollaborator:
		return "collaborator failure"
	default:
		return "unknown"
	}
}

// ErrRevert is a rejected operation. The whole operation must be rolled back.
type ErrRevert struct {
	code    Code
	message string
}

func (e *ErrRevert) Error() string {
	return e.message
}

// RevertCode returns the machine-readable rejection code.
func (e *ErrRevert) RevertCode() Code {
	return e.code
}

func newRevert(code Code, format string, args ...any) *ErrRevert {
	return &ErrRevert{code: code, message: fmt.Sprintf(format, args...)}
}

func Stage(format string, args ...any) *ErrRevert {
	return newRevert(CodeStage, format, args...)
}

func Ownership(format string, args ...any) *ErrRevert {
	return newRevert(CodeOwnership, format, args...)
}

func Invariant(format string, args ...any) *ErrRevert {
	return newRevert(CodeInvariant, format, args...)
}

func NotReady(format string, args ...any) *ErrRevert {
	return newRevert(CodeNotReady, format, args...)
}

func Collaborator(format string, args ...any) *ErrRevert {
	return newRevert(CodeCollaborator, format, args...)
}

// IsRevert reports whether err (or anything it wraps) is a rejection.
func IsRevert(err error) bool {
	var ve *ErrRevert
	return errors.As(err, &ve)
}

// CodeOf returns the rejection code of err, or CodeUnknown if err is not a
// rejection.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.RevertCode()
	}
	return CodeUnknown
}
