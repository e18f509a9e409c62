package zpool

// Vdev types with special meaning during classification.
const (
	TypeSpare     = "spare"
	TypeReplacing = "replacing"
	TypeDisk      = "disk"
	ClassSpare    = "spare"
)

// Device is a typed view of a vdev. It is one of *Leaf, *Spare,
// *Replacing or *Wrapper.
type Device interface {
	Name() string
	State() string
	Class() string
	isDevice()
}

type base struct {
	name  string
	state string
	class string
}

func (b *base) Name() string  { return b.name }
func (b *base) State() string { return b.state }
func (b *base) Class() string { return b.class }
func (*base) isDevice()       {}

// Leaf is a device without children: a disk, a file or a partition.
type Leaf struct {
	base
	Type string
}

// Spare is a hot spare standing in for a failed device. Its children are
// the original device (or a replacement in progress) and the spare itself.
type Spare struct {
	base
	Children []Device
}

// Replacing is a device being replaced; its children are the old and the
// new device.
type Replacing struct {
	base
	Children []Device
}

// Wrapper is any other vdev with children, such as a mirror or raidz group.
type Wrapper struct {
	base
	Type     string
	Children []Device
}

// Device classifies the vdev by its type. Spare and replacing vdevs keep
// their variant even when zpool reports no children.
func (v *Vdev) Device(name string) Device {
	b := base{name: name, state: v.State, class: v.Class}
	switch {
	case v.VdevType == TypeSpare:
		return &Spare{base: b, Children: Devices(v.Vdevs)}
	case v.VdevType == TypeReplacing:
		return &Replacing{base: b, Children: Devices(v.Vdevs)}
	case v.Vdevs != nil && v.Vdevs.Len() > 0:
		return &Wrapper{base: b, Type: v.VdevType, Children: Devices(v.Vdevs)}
	default:
		return &Leaf{base: b, Type: v.VdevType}
	}
}

// Children returns the direct children of a device, or nil for a leaf.
func Children(d Device) []Device {
	switch d := d.(type) {
	case *Spare:
		return d.Children
	case *Replacing:
		return d.Children
	case *Wrapper:
		return d.Children
	}
	return nil
}
