// Package model defines all shared domain types for poolwatch.
package model

import "slices"

// Device states reported by zpool.
const (
	StateOnline   = "ONLINE"
	StateAvail    = "AVAIL"
	StateDegraded = "DEGRADED"
	StateInUse    = "INUSE"
)

// IsOnline reports whether a device state counts as online.
func IsOnline(state string) bool {
	return state == StateOnline || state == StateAvail
}

// IsDegraded reports whether a device state counts as degraded.
func IsDegraded(state string) bool {
	return state == StateDegraded || state == StateInUse
}

// Severity ranks the health of a counter. Higher values are more severe.
type Severity int

const (
	SeverityOnline Severity = iota
	SeverityDegraded
	SeverityOffline
)

func (s Severity) String() string {
	switch s {
	case SeverityOffline:
		return "OFFLINE"
	case SeverityDegraded:
		return "DEGRADED"
	default:
		return "ONLINE"
	}
}

// Counter tallies device health at one level of the tree.
// Online + Degraded never exceeds Total.
type Counter struct {
	Total    int `json:"total"`
	Online   int `json:"online"`
	Degraded int `json:"degraded"`
}

// Add counts one device in the given state. States that are neither online
// nor degraded only count toward the total.
func (c *Counter) Add(state string) {
	c.Total++
	switch {
	case IsOnline(state):
		c.Online++
	case IsDegraded(state):
		c.Degraded++
	}
}

// Unavailable is the number of devices not online.
func (c Counter) Unavailable() int { return c.Total - c.Online }

// Offline is the number of devices neither online nor degraded.
func (c Counter) Offline() int { return c.Total - c.Online - c.Degraded }

// Severity ranks the counter. An empty counter is ONLINE.
func (c Counter) Severity() Severity {
	switch {
	case c.Total > 0 && c.Online+c.Degraded == 0:
		return SeverityOffline
	case c.Online != c.Total:
		return SeverityDegraded
	default:
		return SeverityOnline
	}
}

// Node is one entry of the summary tree: a pool, a redundancy group or an
// auxiliary device class. Drive lists are only set on pools; Vdevs is only
// set on nodes that have named children.
type Node struct {
	Counter
	AllocSpace     string    `json:"alloc_space,omitempty"`
	TotalSpace     string    `json:"total_space,omitempty"`
	DegradedDrives []string  `json:"degraded_drives,omitzero"`
	OfflineDrives  []string  `json:"offline_drives,omitzero"`
	Vdevs          *Children `json:"vdevs,omitzero"`
}

// NewPoolNode returns a pool node with empty drive lists and children.
func NewPoolNode() *Node {
	return &Node{
		DegradedDrives: []string{},
		OfflineDrives:  []string{},
		Vdevs:          NewChildren(),
	}
}

// HasSpace reports whether both space fields are present.
func (n *Node) HasSpace() bool {
	return n.AllocSpace != "" && n.TotalSpace != ""
}

// RecordDrive files a non-online device under the pool's degraded or
// offline list.
func (n *Node) RecordDrive(name, state string) {
	switch {
	case state == StateDegraded:
		n.DegradedDrives = append(n.DegradedDrives, name)
	case state != StateOnline:
		n.OfflineDrives = append(n.OfflineDrives, name)
	}
}

// Equal reports whether two nodes are structurally identical.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Counter == o.Counter &&
		n.AllocSpace == o.AllocSpace &&
		n.TotalSpace == o.TotalSpace &&
		slices.Equal(n.DegradedDrives, o.DegradedDrives) &&
		slices.Equal(n.OfflineDrives, o.OfflineDrives) &&
		n.Vdevs.Equal(o.Vdevs)
}

func (n *Node) field(name string) (any, bool) {
	switch name {
	case "total":
		return n.Total, true
	case "online":
		return n.Online, true
	case "degraded":
		return n.Degraded, true
	case "alloc_space":
		return n.AllocSpace, n.AllocSpace != ""
	case "total_space":
		return n.TotalSpace, n.TotalSpace != ""
	case "degraded_drives":
		return n.DegradedDrives, n.DegradedDrives != nil
	case "offline_drives":
		return n.OfflineDrives, n.OfflineDrives != nil
	case "vdevs":
		return n.Vdevs, n.Vdevs != nil
	}
	return nil, false
}

// Snapshot is the complete summary tree produced by one classification
// pass. The root counter tallies pools by their own reported state.
// A snapshot is never modified once it has been published to a store.
type Snapshot struct {
	Counter
	Vdevs *Children `json:"vdevs"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Vdevs: NewChildren()}
}

// Pool returns the summary node of a pool.
func (s *Snapshot) Pool(name string) (*Node, bool) {
	return s.Vdevs.Get(name)
}

// Equal reports whether two snapshots are structurally identical.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Counter == o.Counter && s.Vdevs.Equal(o.Vdevs)
}

// AsNode views the root of the snapshot as a node, for rendering.
func (s *Snapshot) AsNode() *Node {
	return &Node{Counter: s.Counter, Vdevs: s.Vdevs}
}

func (s *Snapshot) field(name string) (any, bool) {
	switch name {
	case "total":
		return s.Total, true
	case "online":
		return s.Online, true
	case "degraded":
		return s.Degraded, true
	case "vdevs":
		return s.Vdevs, s.Vdevs != nil
	}
	return nil, false
}
