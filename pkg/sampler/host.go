package sampler

// Funcs adapts plain functions to the Host interface.
// A nil Master means the code always runs as master.
type Funcs struct {
	Master func() bool
	Read   func(ch int) uint16
	Now    func() uint32
}

var _ Host = Funcs{}

func (f Funcs) IsMaster() bool {
	if f.Master == nil {
		return true
	}
	return f.Master()
}

func (f Funcs) ReadChannel(ch int) uint16 {
	return f.Read(ch)
}

func (f Funcs) Millis() uint32 {
	return f.Now()
}
