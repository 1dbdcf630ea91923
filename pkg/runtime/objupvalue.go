package runtime

// ObjUpvalue is a reference to a variable that has been captured by a
// closure. While open, Location points directly into the owning frame's
// stack slot; closing copies the value into Closed and repoints Location
// at it. NextOpen threads the VM's open-upvalues list (kept sorted by
// descending stack address) and is distinct from the Header's Next,
// which threads the all-objects list the collector sweeps.
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue
}

func NewObjUpvalue(slot *Value) *ObjUpvalue {
	return &ObjUpvalue{Header: Header{typ: ObjTypeUpvalue}, Location: slot, Closed: NilVal()}
}

func (u *ObjUpvalue) String() string { return "<upvalue>" }
