/*
DESCRIPTION
  marker.go defines the ISO/IEC 21122 codestream marker codes and the
  lengths of their fixed-size payload portions, per section 6 of the decoder
  design.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package jpegxs

// marker is a 16-bit big-endian codestream marker code.
type marker uint16

// Marker codes, per section 6.
const (
	markerSOC marker = 0xFF10 // Start of codestream.
	markerEOC marker = 0xFF11 // End of codestream.
	markerPIH marker = 0xFF12 // Picture header.
	markerCDT marker = 0xFF13 // Component table.
	markerWGT marker = 0xFF14 // Weights table.
	markerCOM marker = 0xFF15 // Comment (optional).
	markerNLT marker = 0xFF16 // Nonlinearity (optional).
	markerCWD marker = 0xFF17 // Component weight/data extension (optional).
	markerCTS marker = 0xFF18 // Color transform specification (mandatory if Cpih=3).
	markerCRG marker = 0xFF19 // Component registration (mandatory if Cpih=3).
	markerSLH marker = 0xFF20 // Slice header.
	markerCAP marker = 0xFF50 // Capability.
)

// pihPayloadLen is the fixed length in bytes of the PIH marker payload
// (excluding the marker and length fields), per section 6: 4+2+2+2+2+2+2+1+1+1+1
// bytes of scalar fields plus 4 bytes of packed sub-byte fields (Fq/Br,
// Fslc/reserved/Cpih, decom_h/decom_v, Lh/Rl/Qpih/Fs/Rm).
const pihPayloadLen = 24

// slhPayloadLen is the fixed length of the SLH marker payload.
const slhPayloadLen = 2

func (m marker) String() string {
	switch m {
	case markerSOC:
		return "SOC"
	case markerEOC:
		return "EOC"
	case markerPIH:
		return "PIH"
	case markerCDT:
		return "CDT"
	case markerWGT:
		return "WGT"
	case markerCOM:
		return "COM"
	case markerNLT:
		return "NLT"
	case markerCWD:
		return "CWD"
	case markerCTS:
		return "CTS"
	case markerCRG:
		return "CRG"
	case markerSLH:
		return "SLH"
	case markerCAP:
		return "CAP"
	default:
		return "UNKNOWN"
	}
}
