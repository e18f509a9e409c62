// Package zpool decodes `zpool status -j` output and runs the command.
package zpool

import (
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrMissingPools is returned when the document has no "pools" object.
var ErrMissingPools = errors.New("zpool status: missing pools")

// OutputVersion identifies the JSON schema zpool emitted.
type OutputVersion struct {
	Command   string `json:"command"`
	VersMajor int    `json:"vers_major"`
	VersMinor int    `json:"vers_minor"`
}

// Status is the root of the `zpool status -j` document.
type Status struct {
	OutputVersion OutputVersion                         `json:"output_version"`
	Pools         *orderedmap.OrderedMap[string, *Pool] `json:"pools"`
}

// Pool is one pool entry. Vdevs holds a single root vdev named after the
// pool; the optional auxiliary classes sit beside it.
type Pool struct {
	Name    string                                `json:"name"`
	State   string                                `json:"state"`
	Status  string                                `json:"status,omitempty"`
	Action  string                                `json:"action,omitempty"`
	Vdevs   *orderedmap.OrderedMap[string, *Vdev] `json:"vdevs"`
	Logs    *orderedmap.OrderedMap[string, *Vdev] `json:"logs,omitempty"`
	L2Cache *orderedmap.OrderedMap[string, *Vdev] `json:"l2cache,omitempty"`
	Spares  *orderedmap.OrderedMap[string, *Vdev] `json:"spares,omitempty"`
}

// Vdev is a node of the device tree as zpool prints it.
type Vdev struct {
	Name       string                                `json:"name"`
	VdevType   string                                `json:"vdev_type"`
	Class      string                                `json:"class"`
	State      string                                `json:"state"`
	AllocSpace string                                `json:"alloc_space,omitempty"`
	TotalSpace string                                `json:"total_space,omitempty"`
	Vdevs      *orderedmap.OrderedMap[string, *Vdev] `json:"vdevs,omitempty"`
}

// Decode parses a status document.
func Decode(data []byte) (*Status, error) {
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("zpool status: parse JSON: %w", err)
	}
	if st.Pools == nil {
		return nil, ErrMissingPools
	}
	return &st, nil
}

// RootVdev returns the vdev that carries the pool's redundancy groups.
func (p *Pool) RootVdev(name string) (*Vdev, error) {
	if p.Vdevs == nil {
		return nil, fmt.Errorf("pool %s: missing vdevs", name)
	}
	root, ok := p.Vdevs.Get(name)
	if !ok || root == nil {
		return nil, fmt.Errorf("pool %s: missing root vdev", name)
	}
	return root, nil
}

// Devices converts an ordered vdev set into typed devices.
func Devices(vs *orderedmap.OrderedMap[string, *Vdev]) []Device {
	if vs == nil {
		return nil
	}
	out := make([]Device, 0, vs.Len())
	for pair := vs.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			continue
		}
		out = append(out, pair.Value.Device(pair.Key))
	}
	return out
}
