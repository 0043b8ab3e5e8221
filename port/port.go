package port

import (
	"encoding/binary"

	"github.com/janweinstock/or1kiss/orerr"
)

// Response is the outcome of one bus transaction.
type Response int

const (
	RespSuccess Response = 0
	RespFailed  Response = 1
	RespError   Response = -1
)

// Request describes a single load, store or fetch. Transactor
// implementations read Addr/Size/Read/Write and fill or consume Data.
type Request struct {
	Read       bool
	Exclusive  bool
	Supervisor bool
	Debug      bool
	IMem       bool

	Addr   uint32
	Size   int
	Data   []byte
	Cycles uint64
}

// Write reports the opposite of Read, for readability at call sites.
func (r *Request) Write() bool { return !r.Read }

// DMem reports the opposite of IMem.
func (r *Request) DMem() bool { return !r.IMem }

// Aligned reports whether Addr is naturally aligned for Size.
func (r *Request) Aligned() bool {
	return r.Size == 0 || r.Addr%uint32(r.Size) == 0
}

// Transactor is the interface a memory backend implements: it consumes
// (or produces, on a read) req.Data and returns a Response.
type Transactor interface {
	Transact(req *Request) Response
}

// Port wraps a Transactor with the byte-order conversion, direct-pointer
// fast path and exclusive-access reservation every backend needs.
type Port struct {
	Backend Transactor
	Order   binary.ByteOrder // defaults to BigEndian, the OR1K wire order

	dataPtr            []byte
	dataStart, dataEnd uint32

	insnPtr            []byte
	insnStart, insnEnd uint32

	exclValid bool
	exclAddr  uint32
	exclData  uint32
}

// New builds a Port over backend using OR1K's default big-endian wire
// order.
func New(backend Transactor) *Port {
	return &Port{Backend: backend, Order: binary.BigEndian}
}

// SetDataPtr registers a byte slice as the direct-access backing for data
// addresses in [start, end]. Passing a nil ptr disables the fast path.
func (p *Port) SetDataPtr(ptr []byte, start, end uint32) error {
	if start > end {
		return orerr.Errorf(1, "invalid data range %#x..%#x", start, end)
	}
	p.dataPtr, p.dataStart, p.dataEnd = ptr, start, end
	return nil
}

// SetInsnPtr is SetDataPtr's instruction-fetch counterpart.
func (p *Port) SetInsnPtr(ptr []byte, start, end uint32) error {
	if start > end {
		return orerr.Errorf(1, "invalid instruction range %#x..%#x", start, end)
	}
	p.insnPtr, p.insnStart, p.insnEnd = ptr, start, end
	return nil
}

// DirectMemoryPtr returns the slice backing req.Addr, if the corresponding
// direct range covers it. The slice runs from req.Addr to the end of the
// registered range, so near the end it can be shorter than req.Size;
// callers check its length and respect req.Size themselves.
func (p *Port) DirectMemoryPtr(req *Request) ([]byte, bool) {
	if req.IMem {
		return directSlice(p.insnPtr, p.insnStart, p.insnEnd, req.Addr)
	}
	return directSlice(p.dataPtr, p.dataStart, p.dataEnd, req.Addr)
}

func directSlice(ptr []byte, start, end, addr uint32) ([]byte, bool) {
	if ptr == nil || addr < start || addr > end {
		return nil, false
	}
	return ptr[addr-start:], true
}

// Transact runs req through the backend, taking the direct-pointer fast
// path when available and falling back to the Transactor otherwise. It
// also arbitrates l.lwa/l.swa exclusive-access semantics.
func (p *Port) Transact(req *Request) Response {
	if req.Exclusive {
		return p.exclusiveTransact(req)
	}
	if direct, ok := p.DirectMemoryPtr(req); ok && len(direct) >= req.Size {
		if req.Read {
			copy(req.Data, direct[:req.Size])
		} else {
			copy(direct[:req.Size], req.Data)
		}
		return RespSuccess
	}
	return p.Backend.Transact(req)
}

func (p *Port) exclusiveTransact(req *Request) Response {
	if req.Read {
		rs := p.dispatch(req)
		if rs == RespSuccess {
			p.exclValid = true
			p.exclAddr = req.Addr
			p.exclData = decodeSized(req.Data, req.Size, p.Order)
		}
		return rs
	}

	// Store-conditional: only succeeds if the reservation is valid for this
	// address and the word still holds the value the matching load saw.
	if !p.exclValid || p.exclAddr != req.Addr {
		return RespFailed
	}
	current := make([]byte, req.Size)
	probe := &Request{Read: true, Addr: req.Addr, Size: req.Size, Data: current, Supervisor: req.Supervisor}
	if rs := p.dispatch(probe); rs != RespSuccess {
		return rs
	}
	if decodeSized(current, req.Size, p.Order) != p.exclData {
		p.exclValid = false
		return RespFailed
	}
	p.exclValid = false
	return p.dispatch(req)
}

func (p *Port) dispatch(req *Request) Response {
	if direct, ok := p.DirectMemoryPtr(req); ok && len(direct) >= req.Size {
		if req.Read {
			copy(req.Data, direct[:req.Size])
		} else {
			copy(direct[:req.Size], req.Data)
		}
		return RespSuccess
	}
	return p.Backend.Transact(req)
}

func decodeSized(b []byte, size int, order binary.ByteOrder) uint32 {
	switch size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(order.Uint16(b))
	default:
		return order.Uint32(b)
	}
}

// Read32/Read16/Read8 and their Write counterparts are the convenience
// entry points core.Engine uses; they build a Request, run it through
// Transact and convert the raw bytes using p.Order.
func (p *Port) Read32(addr uint32, supervisor bool) (uint32, Response) {
	var buf [4]byte
	req := Request{Read: true, Addr: addr, Size: 4, Data: buf[:], Supervisor: supervisor}
	rs := p.Transact(&req)
	return p.Order.Uint32(buf[:]), rs
}

func (p *Port) Write32(addr uint32, val uint32, supervisor bool) Response {
	var buf [4]byte
	p.Order.PutUint32(buf[:], val)
	req := Request{Addr: addr, Size: 4, Data: buf[:], Supervisor: supervisor}
	return p.Transact(&req)
}

func (p *Port) Read16(addr uint32, supervisor bool) (uint16, Response) {
	var buf [2]byte
	req := Request{Read: true, Addr: addr, Size: 2, Data: buf[:], Supervisor: supervisor}
	rs := p.Transact(&req)
	return p.Order.Uint16(buf[:]), rs
}

func (p *Port) Write16(addr uint32, val uint16, supervisor bool) Response {
	var buf [2]byte
	p.Order.PutUint16(buf[:], val)
	req := Request{Addr: addr, Size: 2, Data: buf[:], Supervisor: supervisor}
	return p.Transact(&req)
}

func (p *Port) Read8(addr uint32, supervisor bool) (uint8, Response) {
	var buf [1]byte
	req := Request{Read: true, Addr: addr, Size: 1, Data: buf[:], Supervisor: supervisor}
	rs := p.Transact(&req)
	return buf[0], rs
}

func (p *Port) Write8(addr uint32, val uint8, supervisor bool) Response {
	buf := [1]byte{val}
	req := Request{Addr: addr, Size: 1, Data: buf[:], Supervisor: supervisor}
	return p.Transact(&req)
}

// Read32Excl performs a load-linked 32-bit read: on success it records a
// reservation (address and value) that a subsequent Write32Excl at the
// same address must find undisturbed to succeed.
func (p *Port) Read32Excl(addr uint32, supervisor bool) (uint32, Response) {
	var buf [4]byte
	req := Request{Read: true, Exclusive: true, Addr: addr, Size: 4, Data: buf[:], Supervisor: supervisor}
	rs := p.Transact(&req)
	return p.Order.Uint32(buf[:]), rs
}

// Write32Excl performs a store-conditional 32-bit write: it only reaches
// the backend if the reservation established by a prior Read32Excl at
// addr is still intact, returning RespFailed without touching memory
// otherwise.
func (p *Port) Write32Excl(addr uint32, val uint32, supervisor bool) Response {
	var buf [4]byte
	p.Order.PutUint32(buf[:], val)
	req := Request{Exclusive: true, Addr: addr, Size: 4, Data: buf[:], Supervisor: supervisor}
	return p.Transact(&req)
}

// FetchInsn reads a 32-bit instruction word, tagging the request as an
// instruction-side, non-exclusive access.
func (p *Port) FetchInsn(addr uint32, supervisor bool) (uint32, Response) {
	var buf [4]byte
	req := Request{Read: true, IMem: true, Addr: addr, Size: 4, Data: buf[:], Supervisor: supervisor}
	rs := p.Transact(&req)
	return p.Order.Uint32(buf[:]), rs
}
