// dic.go - decoded-instruction cache
//
// Entries are frame-granular: each entry holds one decoded instruction per
// word of its 4 KiB frame, found by a linear scan over a small slice. The
// number of resident frames stays small in practice, so a linear scan
// outperforms the bookkeeping a map would add.

package main

const instrsPerFrame = frameSize / 4

type dicEntry struct {
	frameAddr uint64
	decoded   [instrsPerFrame]DecodedInstr
}

// InstructionCache is owned by the Simulator, not by any one CPU: every
// hart decodes through the same cache, since they share the same physical
// memory and the same decoded bytes are valid for all of them.
type InstructionCache struct {
	entries []*dicEntry
}

func NewInstructionCache() *InstructionCache {
	return &InstructionCache{}
}

func (c *InstructionCache) findEntry(pageAddr uint64) *dicEntry {
	for _, e := range c.entries {
		if e.frameAddr == pageAddr {
			return e
		}
	}
	return nil
}

func (c *InstructionCache) decodePage(pm *PhysicalMemory, hart uint32, e *dicEntry) {
	for i := 0; i < instrsPerFrame; i++ {
		addr := e.frameAddr + uint64(i*4)
		word := pm.Read32(hart, addr, false)
		e.decoded[i] = Decode(word)
	}
}

// Fetch returns the decoded instruction at phys, rebuilding the owning
// page's cache entry first if its frame is not valid or the entry does not
// exist yet. Addresses outside RAM bypass the cache entirely and are
// decoded on the spot.
func (c *InstructionCache) Fetch(pm *PhysicalMemory, hart uint32, phys uint64) DecodedInstr {
	pageAddr := alignDown(phys, frameSize)
	slot := int((phys & frameMask) / 4)

	if e := c.findEntry(pageAddr); e != nil {
		frame := pm.FindFrame(pageAddr)
		if frame != nil && !frame.Valid {
			c.decodePage(pm, hart, e)
			frame.Valid = true
		}
		return e.decoded[slot]
	}

	frame := pm.FindFrame(pageAddr)
	if frame != nil {
		e := &dicEntry{frameAddr: pageAddr}
		c.decodePage(pm, hart, e)
		frame.Valid = true
		c.entries = append(c.entries, e)
		return e.decoded[slot]
	}

	// Non-RAM (device/ROM) address: bypass the cache, one-shot decode.
	return Decode(pm.Read32(hart, phys, true))
}

// ClearAll frees every cache entry. Called when any hart is done; since the
// cache is already scoped to one *Simulator*, this drops the whole working
// set for every hart that simulator owns, not just the caller.
func (c *InstructionCache) ClearAll() {
	c.entries = nil
}
