package chain

import "encoding/binary"

// Event tags what happened to a node in a Block.
type Event uint8

const (
	// Live records a node joining, or being (re)promoted to elder.
	Live Event = iota
	// Dead records an elder that left the section by relocation.
	Dead
	// Gone records a node demoted from elder, without leaving the section.
	Gone
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case Live:
		return "Live"
	case Dead:
		return "Dead"
	case Gone:
		return "Gone"
	default:
		return "Unknown"
	}
}

// Block is a single append-only log entry: a node's name and age at the
// moment of some Event.
type Block struct {
	Event Event
	Name  uint64
	Age   uint64
}

// NewBlock constructs a Block; its seeding Hash is computed on demand by Hash.
func NewBlock(event Event, name, age uint64) Block {
	return Block{Event: event, Name: name, Age: age}
}

// Hash derives the block's 256-bit keyed hash from (event, name, age).
func (b Block) Hash() Hash {
	var buf [17]byte
	buf[0] = byte(b.Event)
	binary.BigEndian.PutUint64(buf[1:9], b.Name)
	binary.BigEndian.PutUint64(buf[9:17], b.Age)
	return hashBytes(buf[:])
}
