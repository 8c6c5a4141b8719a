package regs

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// Packet is a write of consecutive registers starting at Addr.
type Packet struct {
	Addr   uint32
	Values []uint32
}

// Buffer is an ordered list of register packets.
type Buffer struct {
	packets []Packet
}

// Set appends a single register write.
func (b *Buffer) Set(addr, value uint32) {
	b.packets = append(b.packets, Packet{Addr: addr, Values: []uint32{value}})
}

// SetSeq appends a write of consecutive registers starting at addr.
func (b *Buffer) SetSeq(addr uint32, values ...uint32) {
	b.packets = append(b.packets, Packet{Addr: addr, Values: append([]uint32(nil), values...)})
}

// Packets returns the packets in emission order.
func (b *Buffer) Packets() []Packet { return b.packets }

// Len returns the number of registers written.
func (b *Buffer) Len() int {
	n := 0
	for _, p := range b.packets {
		n += len(p.Values)
	}
	return n
}

// Get returns the last value written to addr.
func (b *Buffer) Get(addr uint32) (uint32, bool) {
	for i := len(b.packets) - 1; i >= 0; i-- {
		p := b.packets[i]
		if addr >= p.Addr && addr < p.Addr+4*uint32(len(p.Values)) {
			return p.Values[(addr-p.Addr)/4], true
		}
	}
	return 0, false
}

// Index returns the position of the first packet starting at addr, or -1.
func (b *Buffer) Index(addr uint32) int {
	for i, p := range b.packets {
		if p.Addr == addr {
			return i
		}
	}
	return -1
}

// Count returns how many packets start at addr.
func (b *Buffer) Count(addr uint32) int {
	n := 0
	for _, p := range b.packets {
		if p.Addr == addr {
			n++
		}
	}
	return n
}

// Bytes encodes the buffer as little-endian (addr, count, values...)
// records.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, 8*len(b.packets)+4*b.Len())
	for _, p := range b.packets {
		out = binary.LittleEndian.AppendUint32(out, p.Addr)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(p.Values)))
		for _, v := range p.Values {
			out = binary.LittleEndian.AppendUint32(out, v)
		}
	}
	return out
}

// String dumps the buffer one register per line.
func (b *Buffer) String() string {
	var sb strings.Builder
	for _, p := range b.packets {
		for i, v := range p.Values {
			fmt.Fprintf(&sb, "%-32s 0x%08X\n", Name(p.Addr+4*uint32(i)), v)
		}
	}
	return sb.String()
}

// Sequence is the register program of one pipeline. It is immutable
// once emitted.
type Sequence struct {
	Context Buffer
	Shader  Buffer
	// ContextHash identifies the context register contents so binds of
	// pipelines with identical render state can be skipped.
	ContextHash uint64
}

func (s *Sequence) finish() {
	h := fnv.New64a()
	_, _ = h.Write(s.Context.Bytes()) // fnv.Write never returns an error
	s.ContextHash = h.Sum64()
}

func hexAddr(addr uint32) string { return fmt.Sprintf("0x%06X", addr) }
