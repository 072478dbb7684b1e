package main

// Tests for the CSR file: sstatus masking, effective mip aggregation, and
// mcountinhibit gating of the free-running counters.

import "testing"

// TestWriteSstatusOnlyTouchesVisibleBits verifies a write through the
// S-mode sstatus view cannot change mstatus bits S-mode has no access to
// (e.g. MIE), while still updating the bits it does own (e.g. SIE).
func TestWriteSstatusOnlyTouchesVisibleBits(t *testing.T) {
	c := NewCSRFile(0)
	c.SetMstatusMIE(true)

	c.WriteSstatus(mstatusSIEMask | mstatusSUMMask)

	if !c.MstatusSIE() {
		t.Fatal("SIE was not set by WriteSstatus")
	}
	if !c.MstatusSUM() {
		t.Fatal("SUM was not set by WriteSstatus")
	}
	if !c.MstatusMIE() {
		t.Fatal("WriteSstatus clobbered MIE, a bit S-mode cannot see")
	}
}

// TestSstatusHidesMachineOnlyBits verifies reading Sstatus never exposes
// MIE/MPIE/MPP even when they are set.
func TestSstatusHidesMachineOnlyBits(t *testing.T) {
	c := NewCSRFile(0)
	c.SetMstatusMIE(true)
	c.SetMstatusMPP(PrivM)

	view := c.Sstatus()
	if view&mstatusMIEMask != 0 {
		t.Fatal("Sstatus leaked MIE")
	}
	if view&mstatusMPPMask != 0 {
		t.Fatal("Sstatus leaked MPP")
	}
}

// TestEffectiveMipAggregatesExternalSEIP verifies EffectiveMip ORs in the
// interrupt controller's external SEIP line without disturbing the
// software mip register itself.
func TestEffectiveMipAggregatesExternalSEIP(t *testing.T) {
	c := NewCSRFile(0)
	if c.EffectiveMip()&mipSEIPMask != 0 {
		t.Fatal("SEIP set before any external line was raised")
	}

	c.ExternalSEIP = true
	if c.EffectiveMip()&mipSEIPMask == 0 {
		t.Fatal("EffectiveMip did not fold in ExternalSEIP")
	}
	if c.Mip&mipSEIPMask != 0 {
		t.Fatal("ExternalSEIP leaked into the software Mip register")
	}
}

// TestMcountinhibitGatesCycleAndInstret verifies that setting the cycle or
// instret inhibit bit freezes only that counter.
func TestMcountinhibitGatesCycleAndInstret(t *testing.T) {
	pm := NewPhysicalMemory()
	dic := NewInstructionCache()
	cpu := NewCPU(0, pm, dic)
	cpu.Init()

	cpu.CSR.Mcountinhibit = mcountinhibitCycleMask
	cpu.account(false)

	if cpu.CSR.Cycle != 0 {
		t.Fatalf("cycle advanced despite mcountinhibit.CY set: got %d", cpu.CSR.Cycle)
	}
	if cpu.CSR.Instret != 1 {
		t.Fatalf("instret = %d, want 1 (not inhibited)", cpu.CSR.Instret)
	}
}

// TestWriteCSRMipSetsSoftwareSEIPIndependentlyOfExternal verifies an
// M-mode CSR write to mip with SEIP set changes the software copy without
// touching ExternalSEIP, and that EffectiveMip reports the OR of both.
func TestWriteCSRMipSetsSoftwareSEIPIndependentlyOfExternal(t *testing.T) {
	pm := NewPhysicalMemory()
	dic := NewInstructionCache()
	cpu := NewCPU(0, pm, dic)
	cpu.Init()

	ok := cpu.writeCSR(csrMip, mipSEIPMask)
	if !ok {
		t.Fatal("writeCSR(mip, SEIP) reported failure")
	}
	if cpu.CSR.Mip&mipSEIPMask == 0 {
		t.Fatal("software mip.SEIP was not set by the CSR write")
	}
	if cpu.CSR.ExternalSEIP {
		t.Fatal("CSR write to mip.SEIP leaked into ExternalSEIP")
	}
	if cpu.CSR.EffectiveMip()&mipSEIPMask == 0 {
		t.Fatal("EffectiveMip did not reflect the software-set SEIP bit")
	}

	if !cpu.writeCSR(csrMip, 0) {
		t.Fatal("writeCSR(mip, 0) reported failure")
	}
	if cpu.CSR.Mip&mipSEIPMask != 0 {
		t.Fatal("software mip.SEIP was not clearable via the CSR write")
	}
}

// TestSetMstatusMPPRoundTrips verifies the MPP field survives an encode and
// decode cycle for every privilege level.
func TestSetMstatusMPPRoundTrips(t *testing.T) {
	c := NewCSRFile(0)
	for _, p := range []Privilege{PrivU, PrivS, PrivM} {
		c.SetMstatusMPP(p)
		if got := c.MstatusMPP(); got != p {
			t.Fatalf("MstatusMPP() = %s after SetMstatusMPP(%s)", got, p)
		}
	}
}
