// riscv_decode.go - RV32IMA instruction decode
//
// Decode extracts every field a given opcode might need up front and
// tags the result with an OpKind enum, so exec dispatches on a simple
// switch instead of re-deriving funct3/funct7 at execute time. The
// decoded-instruction cache stores these DecodedInstr values directly.

package main

type OpKind uint8

const (
	OpIllegal OpKind = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK
	OpMRET
	OpSRET
	OpWFI
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW
)

// DecodedInstr is the pre-extracted, tagged-opcode form the decoded
// instruction cache stores.
type DecodedInstr struct {
	Op     OpKind
	Raw    uint32
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	Imm    int32
	CSR    uint16
	Aq     bool
	Rl     bool
}

const (
	opcodeLUI      = 0x37
	opcodeAUIPC    = 0x17
	opcodeJAL      = 0x6F
	opcodeJALR     = 0x67
	opcodeBRANCH   = 0x63
	opcodeLOAD     = 0x03
	opcodeSTORE    = 0x23
	opcodeOPIMM    = 0x13
	opcodeOP       = 0x33
	opcodeMISCMEM  = 0x0F
	opcodeSYSTEM   = 0x73
	opcodeAMO      = 0x2F
)

func immI(raw uint32) int32 { return int32(raw) >> 20 }

func immS(raw uint32) int32 {
	return (int32(raw)>>25)<<5 | int32((raw>>7)&0x1f)
}

func immB(raw uint32) int32 {
	return (int32(raw)>>31)<<12 |
		int32((raw>>7)&1)<<11 |
		int32((raw>>25)&0x3f)<<5 |
		int32((raw>>8)&0xf)<<1
}

func immU(raw uint32) int32 { return int32(raw & 0xFFFFF000) }

func immJ(raw uint32) int32 {
	return (int32(raw)>>31)<<20 |
		int32((raw>>12)&0xff)<<12 |
		int32((raw>>20)&1)<<11 |
		int32((raw>>21)&0x3ff)<<1
}

// Decode extracts a DecodedInstr from a raw instruction word. Unrecognized
// encodings decode to OpIllegal; the CPU raises illegal_instruction and
// records the raw word in tval on execution.
func Decode(raw uint32) DecodedInstr {
	opcode := raw & 0x7F
	rd := uint8((raw >> 7) & 0x1F)
	funct3 := uint8((raw >> 12) & 0x7)
	rs1 := uint8((raw >> 15) & 0x1F)
	rs2 := uint8((raw >> 20) & 0x1F)
	funct7 := (raw >> 25) & 0x7F

	d := DecodedInstr{Raw: raw, Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3}

	switch opcode {
	case opcodeLUI:
		d.Op = OpLUI
		d.Imm = immU(raw)
	case opcodeAUIPC:
		d.Op = OpAUIPC
		d.Imm = immU(raw)
	case opcodeJAL:
		d.Op = OpJAL
		d.Imm = immJ(raw)
	case opcodeJALR:
		if funct3 != 0 {
			d.Op = OpIllegal
			return d
		}
		d.Op = OpJALR
		d.Imm = immI(raw)
	case opcodeBRANCH:
		d.Imm = immB(raw)
		switch funct3 {
		case 0b000:
			d.Op = OpBEQ
		case 0b001:
			d.Op = OpBNE
		case 0b100:
			d.Op = OpBLT
		case 0b101:
			d.Op = OpBGE
		case 0b110:
			d.Op = OpBLTU
		case 0b111:
			d.Op = OpBGEU
		default:
			d.Op = OpIllegal
		}
	case opcodeLOAD:
		d.Imm = immI(raw)
		switch funct3 {
		case 0b000:
			d.Op = OpLB
		case 0b001:
			d.Op = OpLH
		case 0b010:
			d.Op = OpLW
		case 0b100:
			d.Op = OpLBU
		case 0b101:
			d.Op = OpLHU
		default:
			d.Op = OpIllegal
		}
	case opcodeSTORE:
		d.Imm = immS(raw)
		switch funct3 {
		case 0b000:
			d.Op = OpSB
		case 0b001:
			d.Op = OpSH
		case 0b010:
			d.Op = OpSW
		default:
			d.Op = OpIllegal
		}
	case opcodeOPIMM:
		d.Imm = immI(raw)
		switch funct3 {
		case 0b000:
			d.Op = OpADDI
		case 0b010:
			d.Op = OpSLTI
		case 0b011:
			d.Op = OpSLTIU
		case 0b100:
			d.Op = OpXORI
		case 0b110:
			d.Op = OpORI
		case 0b111:
			d.Op = OpANDI
		case 0b001:
			if funct7 != 0 {
				d.Op = OpIllegal
			} else {
				d.Op = OpSLLI
				d.Imm = int32(rs2)
			}
		case 0b101:
			d.Imm = int32(rs2)
			switch funct7 {
			case 0x00:
				d.Op = OpSRLI
			case 0x20:
				d.Op = OpSRAI
			default:
				d.Op = OpIllegal
			}
		default:
			d.Op = OpIllegal
		}
	case opcodeOP:
		switch funct7 {
		case 0x00:
			switch funct3 {
			case 0b000:
				d.Op = OpADD
			case 0b001:
				d.Op = OpSLL
			case 0b010:
				d.Op = OpSLT
			case 0b011:
				d.Op = OpSLTU
			case 0b100:
				d.Op = OpXOR
			case 0b101:
				d.Op = OpSRL
			case 0b110:
				d.Op = OpOR
			case 0b111:
				d.Op = OpAND
			default:
				d.Op = OpIllegal
			}
		case 0x20:
			switch funct3 {
			case 0b000:
				d.Op = OpSUB
			case 0b101:
				d.Op = OpSRA
			default:
				d.Op = OpIllegal
			}
		case 0x01:
			switch funct3 {
			case 0b000:
				d.Op = OpMUL
			case 0b001:
				d.Op = OpMULH
			case 0b010:
				d.Op = OpMULHSU
			case 0b011:
				d.Op = OpMULHU
			case 0b100:
				d.Op = OpDIV
			case 0b101:
				d.Op = OpDIVU
			case 0b110:
				d.Op = OpREM
			case 0b111:
				d.Op = OpREMU
			default:
				d.Op = OpIllegal
			}
		default:
			d.Op = OpIllegal
		}
	case opcodeMISCMEM:
		d.Op = OpFENCE
	case opcodeSYSTEM:
		switch funct3 {
		case 0b000:
			switch raw {
			case 0x00000073:
				d.Op = OpECALL
			case 0x00100073:
				d.Op = OpEBREAK
			case 0x30200073:
				d.Op = OpMRET
			case 0x10200073:
				d.Op = OpSRET
			case 0x10500073:
				d.Op = OpWFI
			default:
				d.Op = OpIllegal
			}
		case 0b001:
			d.Op = OpCSRRW
			d.CSR = uint16(raw >> 20)
		case 0b010:
			d.Op = OpCSRRS
			d.CSR = uint16(raw >> 20)
		case 0b011:
			d.Op = OpCSRRC
			d.CSR = uint16(raw >> 20)
		case 0b101:
			d.Op = OpCSRRWI
			d.CSR = uint16(raw >> 20)
		case 0b110:
			d.Op = OpCSRRSI
			d.CSR = uint16(raw >> 20)
		case 0b111:
			d.Op = OpCSRRCI
			d.CSR = uint16(raw >> 20)
		default:
			d.Op = OpIllegal
		}
	case opcodeAMO:
		if funct3 != 0b010 {
			d.Op = OpIllegal
			return d
		}
		d.Aq = funct7&0x02 != 0
		d.Rl = funct7&0x01 != 0
		switch funct7 >> 2 {
		case 0b00010:
			d.Op = OpLRW
		case 0b00011:
			d.Op = OpSCW
		case 0b00001:
			d.Op = OpAMOSWAPW
		case 0b00000:
			d.Op = OpAMOADDW
		case 0b00100:
			d.Op = OpAMOXORW
		case 0b01100:
			d.Op = OpAMOANDW
		case 0b01000:
			d.Op = OpAMOORW
		case 0b10000:
			d.Op = OpAMOMINW
		case 0b10100:
			d.Op = OpAMOMAXW
		case 0b11000:
			d.Op = OpAMOMINUW
		case 0b11100:
			d.Op = OpAMOMAXUW
		default:
			d.Op = OpIllegal
		}
	default:
		d.Op = OpIllegal
	}
	return d
}
