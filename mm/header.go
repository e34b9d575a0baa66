package mm

import "github.com/bnclabs/goheap/api"

// cell header layout.
const (
	hdrTypeid    = int64(0)
	hdrFlags     = int64(4)
	hdrInlineoff = int64(8)
	hdrInlinecnt = int64(12)
)

// cell header flags.
const (
	flagInline uint32 = 1 << iota
	flagObject
)

// object layout, after the header.
const (
	objPrototype  = int64(16)
	objMemberdata = int64(24)
	objClassid    = int64(32)
	// Objectsize size of the fixed part of an object cell.
	Objectsize = int64(40)
)

// memberdata layout, values follow the header as inline slots.
const memberdataSize = api.Headersize

type header []byte

func (hdr header) typeid() uint32 {
	return api.Getuint32(hdr, hdrTypeid)
}

func (hdr header) flags() uint32 {
	return api.Getuint32(hdr, hdrFlags)
}

func (hdr header) isobject() bool {
	return hdr.flags()&flagObject != 0
}

func (hdr header) inline() (off, count int64) {
	if hdr.flags()&flagInline == 0 {
		return 0, 0
	}
	off = int64(api.Getuint32(hdr, hdrInlineoff))
	count = int64(api.Getuint32(hdr, hdrInlinecnt))
	return off, count
}

func (hdr header) stamp(td *TypeDescriptor, inlineoff, inlinecnt int64) {
	flags := uint32(0)
	if inlinecnt > 0 {
		flags |= flagInline
		api.Setuint32(hdr, hdrInlineoff, uint32(inlineoff))
		api.Setuint32(hdr, hdrInlinecnt, uint32(inlinecnt))
	}
	if td.object {
		flags |= flagObject
	}
	api.Setuint32(hdr, hdrTypeid, td.id)
	api.Setuint32(hdr, hdrFlags, flags)
}
