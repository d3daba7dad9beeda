package bridge

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies bridge failures so callers can decide the next
// action programmatically.
type ErrorKind int

const (
	// KindConnectivity is a transport or network failure. Retryable by an
	// outer resilience layer, never retried inside the bridge itself.
	KindConnectivity ErrorKind = iota + 1
	// KindNoWorkersAvailable means the match result was semantically empty.
	KindNoWorkersAvailable
	// KindInsufficientFunds means liquidity assurance could not cover the
	// requested amount. The caller should fund, not retry.
	KindInsufficientFunds
	// KindExecutionFailure is a submission rejection or remote task failure.
	KindExecutionFailure
	// KindExecutionTimeout means the local polling deadline elapsed before
	// the server reported a terminal status.
	KindExecutionTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindNoWorkersAvailable:
		return "no_workers_available"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindExecutionFailure:
		return "execution_failure"
	case KindExecutionTimeout:
		return "execution_timeout"
	}
	return "unknown"
}

// Error carries the failure kind plus structured detail about which
// constraint failed.
type Error struct {
	Kind    ErrorKind
	Message string

	RequiredGstd  float64
	AvailableGstd float64
	TaskId        string
	Elapsed       time.Duration

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

func IsConnectivity(err error) bool       { return kindOf(err) == KindConnectivity }
func IsNoWorkersAvailable(err error) bool { return kindOf(err) == KindNoWorkersAvailable }
func IsInsufficientFunds(err error) bool  { return kindOf(err) == KindInsufficientFunds }
func IsExecutionFailure(err error) bool   { return kindOf(err) == KindExecutionFailure }
func IsExecutionTimeout(err error) bool   { return kindOf(err) == KindExecutionTimeout }

func connectivityErr(msg string, err error) *Error {
	return &Error{Kind: KindConnectivity, Message: msg, Err: err}
}
