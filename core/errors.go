package core

import (
	"errors"
	"fmt"

	"pkt.systems/tabgrouper/schema"
)

var (
	errNotAbsolute    = errors.New("url is not absolute")
	errMissingSurface = errors.New("tab surface is required")
)

// PartitionError reports a failed group operation for one window/key partition.
type PartitionError struct {
	WindowID schema.WindowID
	Key      schema.GroupingKey
	Op       string
	Err      error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%s %q in window %d: %v", e.Op, e.Key, e.WindowID, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

// GroupError reports a failed operation on an existing group.
type GroupError struct {
	GroupID schema.GroupID
	Op      string
	Err     error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("%s group %s: %v", e.Op, e.GroupID, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}
