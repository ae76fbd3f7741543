/*
DESCRIPTION
  pi.go derives the Picture Info (PI) structure from a parsed picture
  header: per-component geometry, the wavelet band list, the precinct and
  slice grids, and the packet layout within a precinct, per section 4.4 of
  the ISO/IEC 21122 decoder design ("Picture Info (PI)" in section 2/3).

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

import "fmt"

// Orientation identifies a wavelet subband's orientation.
type Orientation int

const (
	orientLL Orientation = iota // Lowest-frequency band (only one, global band 0).
	orientH                     // Horizontal-only detail (produced by a horizontal-only level).
	orientHL                    // Horizontal-high, vertical-low.
	orientLH                    // Horizontal-low, vertical-high.
	orientHH                    // Horizontal-high, vertical-high.
)

// Band describes one wavelet subband of one component.
type Band struct {
	Level       int // Decomposition level this band was produced at (1 = finest).
	Orientation Orientation
	Width       int // Band width in coefficients.
	Height      int // Band height in coefficients, across the whole component.
	HeightLines int // Band height contributed per single precinct row.
	Gain        int
	Priority    int
}

// ComponentInfo describes the derived per-component geometry and band list.
type ComponentInfo struct {
	Width, Height int
	DecomH        int // This component's effective horizontal decomposition levels.
	DecomV        int // This component's effective vertical decomposition levels.
	Bands         []Band
}

// PacketEntry describes one (band range, precinct line) tuple in the
// packet layout, per section 3.
type PacketEntry struct {
	BandStart, BandStop int // Inclusive global band index range for this packet.
	LineIdx             int // Precinct-row-relative line this packet covers.
}

// PrecinctGeom is the per-(component,band) geometry carried by one precinct
// variant.
type PrecinctGeom struct {
	Width        int // Coefficient columns in this precinct, this band.
	GCLIWidth    int // Number of 4-coefficient groups across Width.
	SigWidth     int // Number of 8-group significance groups across GCLIWidth.
	Height       int // Coefficient rows in this precinct, this band.
}

// PrecinctVariantKind identifies one of the four precinct shapes.
type PrecinctVariantKind int

const (
	VariantNormal     PrecinctVariantKind = iota // Typical interior precinct.
	VariantNormalLast                            // Rightmost column of a slice row.
	VariantLastNormal                            // Last slice, last row (but not last column).
	VariantLast                                   // Last precinct of the frame.
)

// PrecinctVariant carries the per-(component,band) geometry for one of the
// four precinct shapes.
type PrecinctVariant struct {
	Kind    PrecinctVariantKind
	Geom    [][]PrecinctGeom // [component][bandIndexWithinComponent]
}

// PictureInfo is computed once per stream from the const header and is
// read-only thereafter; multiple goroutines may read it concurrently
// without locking, per section 9.
type PictureInfo struct {
	Components []ComponentInfo

	// GlobalBands is the band existence map over the 1D global band index:
	// GlobalBands[i] is true if band i exists for at least one component.
	GlobalBands []bool

	PrecinctsPerLine int // Precinct columns per row (same for every component row).
	PrecinctsPerCol  int // Precinct rows (grid height), i.e. total slice-grid rows.
	PrecinctsPerSlice int // Precinct rows per slice (== Hsl).
	SlicesNum        int

	Packets []PacketEntry

	Variants [4]PrecinctVariant
}

// maxPrecinctsPerSliceCol bounds slice height in precincts, an
// implementation-defined safety bound per section 3.
const maxPrecinctsPerSliceCol = 130

// buildComponentBands derives the band list for one component given its
// (possibly subsampled) width/height and the stream's horizontal/vertical
// decomposition levels. Vertical decomposition only applies for the first
// DecomV levels (finest to coarsest); remaining DecomH-DecomV levels are
// horizontal-only, per section 4.6's description of up to 5 horizontal and
// 2 vertical levels.
func buildComponentBands(width, height, decomH, decomV int, gain, priority []int) []Band {
	var detail []Band // Accumulated finest-to-coarsest; reversed at the end.
	w, h := width, height
	gi := 0
	nextGain := func() (int, int) {
		g, p := 0, 0
		if gi < len(gain) {
			g = gain[gi]
		}
		if gi < len(priority) {
			p = priority[gi]
		}
		gi++
		return g, p
	}

	for lvl := 1; lvl <= decomH; lvl++ {
		hw := (w + 1) / 2
		if lvl <= decomV {
			hh := (h + 1) / 2
			g1, p1 := nextGain()
			g2, p2 := nextGain()
			g3, p3 := nextGain()
			detail = append(detail,
				Band{Level: lvl, Orientation: orientHL, Width: hw, Height: hh, HeightLines: hh, Gain: g1, Priority: p1},
				Band{Level: lvl, Orientation: orientLH, Width: hw, Height: hh, HeightLines: hh, Gain: g2, Priority: p2},
				Band{Level: lvl, Orientation: orientHH, Width: hw, Height: hh, HeightLines: hh, Gain: g3, Priority: p3},
			)
			w, h = hw, hh
		} else {
			g1, p1 := nextGain()
			detail = append(detail,
				Band{Level: lvl, Orientation: orientH, Width: hw, Height: h, HeightLines: h, Gain: g1, Priority: p1},
			)
			w = hw
		}
	}

	g0, p0 := nextGain()
	ll := Band{Level: decomH + 1, Orientation: orientLL, Width: w, Height: h, HeightLines: h, Gain: g0, Priority: p0}

	bands := make([]Band, 0, len(detail)+1)
	bands = append(bands, ll)
	for i := len(detail) - 1; i >= 0; i-- {
		bands = append(bands, detail[i])
	}
	return bands
}

// buildPI derives a PictureInfo from c (the validated const picture header).
func buildPI(c *PictureHeaderConst) (*PictureInfo, error) {
	if len(c.Sx) != c.Nc || len(c.Sy) != c.Nc {
		return nil, newKind(DecoderInternal, "CDT not parsed before PI derivation")
	}
	if c.Ppoc <= 0 || c.Hsl <= 0 {
		return nil, newKind(InvalidBitstream, "Ppoc and Hsl must be positive")
	}

	pi := &PictureInfo{
		PrecinctsPerSlice: c.Hsl,
	}

	maxBands := 0
	pi.Components = make([]ComponentInfo, c.Nc)
	for i := 0; i < c.Nc; i++ {
		cw := (c.W + c.Sx[i] - 1) / c.Sx[i]
		ch := (c.H + c.Sy[i] - 1) / c.Sy[i]
		decomV := c.DecomV - (c.Sy[i] - 1)
		if decomV < 0 {
			decomV = 0
		}
		decomH := c.DecomH
		bands := buildComponentBands(cw, ch, decomH, decomV, c.Gain, c.Priority)
		pi.Components[i] = ComponentInfo{
			Width: cw, Height: ch, DecomH: decomH, DecomV: decomV, Bands: bands,
		}
		if len(bands) > maxBands {
			maxBands = len(bands)
		}
	}

	pi.GlobalBands = make([]bool, maxBands)
	for i := range pi.GlobalBands {
		for _, comp := range pi.Components {
			if i < len(comp.Bands) {
				pi.GlobalBands[i] = true
				break
			}
		}
	}

	pi.PrecinctsPerLine = (c.W + c.Ppoc - 1) / c.Ppoc
	// Precinct rows are defined at the frame level (component 0, full
	// resolution), matching the Ppoc/Hsl grid shared by every component.
	pi.PrecinctsPerCol = (c.H + ((1 << uint(c.DecomV)) * c.Hsl) - 1) / ((1 << uint(c.DecomV)) * c.Hsl)
	if pi.PrecinctsPerCol < 1 {
		pi.PrecinctsPerCol = 1
	}
	if c.Hsl > maxPrecinctsPerSliceCol {
		return nil, newKind(InvalidBitstream, fmt.Sprintf("Hsl %d exceeds implementation bound %d", c.Hsl, maxPrecinctsPerSliceCol))
	}

	pi.SlicesNum = (pi.PrecinctsPerCol + c.Hsl - 1) / c.Hsl

	pi.Packets = buildPacketLayout(pi)
	pi.Variants = buildVariants(c, pi)

	return pi, nil
}

// buildPacketLayout derives the ordered (band_start, band_stop, line_idx)
// tuples that describe how bands are interleaved into packets within a
// precinct, per section 3/4.4. Packets are grouped by decomposition level so
// that all bands produced at the same level (and sharing a line index) are
// coded together; band 0 (LL) is its own packet at line 0.
func buildPacketLayout(pi *PictureInfo) []PacketEntry {
	maxBands := len(pi.GlobalBands)
	if maxBands == 0 {
		return nil
	}
	// Determine level per global band index using component 0's band list
	// shape (by construction every component enumerates bands in the same
	// level order, differing only in whether a given level exists).
	var packets []PacketEntry
	packets = append(packets, PacketEntry{BandStart: 0, BandStop: 0, LineIdx: 0})

	start := 1
	for start < maxBands {
		stop := start
		// Group consecutive H/HL+LH+HH bands that belong to the same level
		// by looking for the run of same orientation-adjacency; since bands
		// are enumerated coarse-to-fine after LL, each level contributes
		// either 1 (H-only) or 3 (HL,LH,HH) consecutive bands. We detect run
		// length from the first component that has this band.
		run := bandRunLength(pi, start)
		stop = start + run - 1
		if stop >= maxBands {
			stop = maxBands - 1
		}
		packets = append(packets, PacketEntry{BandStart: start, BandStop: stop, LineIdx: 0})
		start = stop + 1
	}
	return packets
}

// bandRunLength returns how many consecutive global band indices starting
// at idx belong to the same decomposition level, by consulting the first
// component whose band list reaches that far.
func bandRunLength(pi *PictureInfo, idx int) int {
	for _, comp := range pi.Components {
		if idx < len(comp.Bands) {
			lvl := comp.Bands[idx].Level
			run := 0
			for j := idx; j < len(comp.Bands) && comp.Bands[j].Level == lvl; j++ {
				run++
			}
			return run
		}
	}
	return 1
}

// buildVariants derives the four precinct-shape variants (NORMAL,
// NORMAL_LAST, LAST_NORMAL, LAST), each carrying per-(component,band)
// geometry, per section 3.
func buildVariants(c *PictureHeaderConst, pi *PictureInfo) [4]PrecinctVariant {
	var variants [4]PrecinctVariant
	kinds := [4]PrecinctVariantKind{VariantNormal, VariantNormalLast, VariantLastNormal, VariantLast}

	lastColWidth := c.W - (pi.PrecinctsPerLine-1)*c.Ppoc
	if lastColWidth <= 0 || lastColWidth > c.Ppoc {
		lastColWidth = c.Ppoc
	}

	for vi, kind := range kinds {
		geom := make([][]PrecinctGeom, len(pi.Components))
		for ci, comp := range pi.Components {
			geom[ci] = make([]PrecinctGeom, len(comp.Bands))
			for bi, band := range comp.Bands {
				widthSamples := c.Ppoc
				isLastCol := kind == VariantNormalLast || kind == VariantLast
				if isLastCol {
					widthSamples = lastColWidth
				}
				scale := 1 << uint(band.Level-1)
				if band.Orientation == orientLL {
					scale = 1 << uint(band.Level-1)
				}
				bw := widthSamples / (scale * c.Sx[ci])
				if bw < 1 {
					bw = 1
				}
				if bw > band.Width {
					bw = band.Width
				}
				gcliWidth := (bw + coeffGroupSize - 1) / coeffGroupSize
				sigWidth := (gcliWidth + sigGroupSize - 1) / sigGroupSize
				geom[ci][bi] = PrecinctGeom{
					Width:     bw,
					GCLIWidth: gcliWidth,
					SigWidth:  sigWidth,
					Height:    band.HeightLines,
				}
			}
		}
		variants[vi] = PrecinctVariant{Kind: kind, Geom: geom}
	}
	return variants
}
