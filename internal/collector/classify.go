package collector

import (
	"fmt"

	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/darshan-rambhia/poolwatch/internal/zpool"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Names of the auxiliary class nodes attached to each pool.
const (
	LogsNode   = "logs"
	CacheNode  = "cache"
	SparesNode = "spares"
)

const replacingSuffix = " (replacing)"

// Classify reduces a zpool status document to a summary snapshot. It does
// no I/O. A pool without its root vdev is an error; the caller skips the
// cycle.
func Classify(st *zpool.Status, showSpace bool) (*model.Snapshot, error) {
	if st == nil || st.Pools == nil {
		return nil, zpool.ErrMissingPools
	}
	snap := model.NewSnapshot()

	for pair := st.Pools.Oldest(); pair != nil; pair = pair.Next() {
		name, pool := pair.Key, pair.Value
		if pool == nil {
			return nil, fmt.Errorf("pool %s: empty entry", name)
		}
		node, err := classifyPool(name, pool, showSpace)
		if err != nil {
			return nil, err
		}
		snap.Add(pool.State)
		snap.Vdevs.Set(name, node)
	}
	return snap, nil
}

func classifyPool(name string, pool *zpool.Pool, showSpace bool) (*model.Node, error) {
	root, err := pool.RootVdev(name)
	if err != nil {
		return nil, err
	}

	node := model.NewPoolNode()
	if showSpace && root.AllocSpace != "" && root.TotalSpace != "" {
		node.AllocSpace = root.AllocSpace
		node.TotalSpace = root.TotalSpace
	}

	for _, group := range zpool.Devices(root.Vdevs) {
		g := &model.Node{}
		for _, drive := range groupMembers(group) {
			for _, leaf := range leaves(drive) {
				node.Add(leaf.State())
				g.Add(leaf.State())
			}
			classifyDrive(node, drive)
		}
		node.Vdevs.Set(group.Name(), g)
	}

	if pool.Logs != nil {
		logs := &model.Node{}
		for _, d := range zpool.Devices(pool.Logs) {
			if _, ok := d.(*zpool.Leaf); ok {
				logs.Add(d.State())
				continue
			}
			for _, sub := range zpool.Children(d) {
				logs.Add(sub.State())
			}
		}
		node.Vdevs.Set(LogsNode, logs)
	}
	if pool.L2Cache != nil {
		node.Vdevs.Set(CacheNode, tallyFlat(pool.L2Cache))
	}
	if pool.Spares != nil {
		node.Vdevs.Set(SparesNode, tallyFlat(pool.Spares))
	}
	return node, nil
}

// groupMembers returns the devices tallied for a top-level group. A group
// that is itself a leaf (a plain striped disk) counts as its only member.
func groupMembers(group zpool.Device) []zpool.Device {
	if _, ok := group.(*zpool.Leaf); ok {
		return []zpool.Device{group}
	}
	return zpool.Children(group)
}

// leaves returns the devices a group member contributes to the counters.
// Spare and replacing wrappers are not devices themselves; their children
// are counted instead. An empty wrapper still counts as one device.
func leaves(d zpool.Device) []zpool.Device {
	var children []zpool.Device
	switch w := d.(type) {
	case *zpool.Spare:
		children = w.Children
	case *zpool.Replacing:
		children = w.Children
	default:
		return []zpool.Device{d}
	}
	if len(children) == 0 {
		return []zpool.Device{d}
	}
	var out []zpool.Device
	for _, c := range children {
		out = append(out, leaves(c)...)
	}
	return out
}

// classifyDrive files a group member under the pool's drive lists. Only a
// spare is descended into; any other variant is recorded under its own
// name.
func classifyDrive(pool *model.Node, drive zpool.Device) {
	if drive.State() == model.StateOnline {
		return
	}
	spare, ok := drive.(*zpool.Spare)
	if !ok {
		pool.RecordDrive(drive.Name(), drive.State())
		return
	}
	for _, sub := range spare.Children {
		switch sub := sub.(type) {
		case *zpool.Replacing:
			for _, r := range sub.Children {
				pool.RecordDrive(r.Name()+replacingSuffix, r.State())
			}
		default:
			if sub.Class() != zpool.ClassSpare {
				pool.RecordDrive(sub.Name(), sub.State())
			}
		}
	}
}

func tallyFlat(vs *orderedmap.OrderedMap[string, *zpool.Vdev]) *model.Node {
	n := &model.Node{}
	for _, d := range zpool.Devices(vs) {
		n.Add(d.State())
	}
	return n
}
