package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrObsoleteVersion is returned by a put whose version is dominated by
	// (or equal to) a version already stored for the key.
	ErrObsoleteVersion = errors.New("obsolete version")

	// ErrConnectivity marks failures to reach a remote node's store.
	ErrConnectivity = errors.New("store connectivity failure")

	// ErrValidation marks malformed keys or values.
	ErrValidation = errors.New("validation failed")

	// ErrStoreNotFound is returned when a store name is not defined on this node.
	ErrStoreNotFound = errors.New("store not found")
)

// ConnectivityError reports that the store of a remote node could not be used.
type ConnectivityError struct {
	StoreName string
	NodeID    NodeID
	Err       error
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: store %q on node %d", ErrConnectivity, e.StoreName, e.NodeID)
	}
	return fmt.Sprintf("%v: store %q on node %d: %v", ErrConnectivity, e.StoreName, e.NodeID, e.Err)
}

func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ObsoleteVersionError carries the key and the version that lost the comparison.
type ObsoleteVersionError struct {
	Key     Key
	Version VectorClock
}

func (e *ObsoleteVersionError) Error() string {
	return fmt.Sprintf("%v: key %s version %s", ErrObsoleteVersion, e.Key, e.Version)
}

func (e *ObsoleteVersionError) Is(target error) bool {
	return target == ErrObsoleteVersion
}
