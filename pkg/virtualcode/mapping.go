package virtualcode

import (
	"sort"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/etsls/pkg/editbuf"
	"github.com/walteh/etsls/pkg/position"
)

// MappingRecord maps generated ranges back to the source. All offsets and
// lengths are UTF-16 code units.
//
// Entry i covers generated [GeneratedOffsets[i], GeneratedOffsets[i]+GeneratedLengths[i]).
// A generated offset g inside it maps to
// SourceOffsets[i] + min(g-GeneratedOffsets[i], Lengths[i]). Synthesized
// text has Lengths[i] == 0 and maps as a whole to its anchor.
type MappingRecord struct {
	SourceOffsets    []int                `json:"sourceOffsets"`
	GeneratedOffsets []int                `json:"generatedOffsets"`
	Lengths          []int                `json:"lengths"`
	GeneratedLengths []int                `json:"generatedLengths"`
	Data             editbuf.Capabilities `json:"data"`
}

func (me *MappingRecord) add(src, srcLen, gen, genLen int) {
	if n := len(me.SourceOffsets) - 1; n >= 0 && srcLen > 0 && me.Lengths[n] == me.GeneratedLengths[n] && me.Lengths[n] > 0 &&
		me.SourceOffsets[n]+me.Lengths[n] == src && me.GeneratedOffsets[n]+me.GeneratedLengths[n] == gen && srcLen == genLen {
		me.Lengths[n] += srcLen
		me.GeneratedLengths[n] += genLen
		return
	}
	me.SourceOffsets = append(me.SourceOffsets, src)
	me.GeneratedOffsets = append(me.GeneratedOffsets, gen)
	me.Lengths = append(me.Lengths, srcLen)
	me.GeneratedLengths = append(me.GeneratedLengths, genLen)
}

// Assemble finalizes a buffer: one record per run of segments sharing the
// same capabilities.
func Assemble(buf *editbuf.Buffer) *VirtualCode {
	source := buf.Source()
	generated := buf.Text()

	srcIdx := position.NewUTF16Index(source)
	genIdx := position.NewUTF16Index(generated)

	var records []MappingRecord
	cum := 0
	for _, seg := range buf.Segments() {
		genStart := genIdx.ToUTF16(cum)
		cum += seg.Len()
		genLen := genIdx.ToUTF16(cum) - genStart

		if n := len(records); n == 0 || records[n-1].Data != seg.Caps {
			records = append(records, MappingRecord{Data: seg.Caps})
		}
		rec := &records[len(records)-1]

		if seg.Kind == editbuf.KindSynthetic {
			rec.add(srcIdx.ToUTF16(seg.Anchor), 0, genStart, genLen)
			continue
		}
		srcStart := srcIdx.ToUTF16(seg.SourceStart)
		rec.add(srcStart, srcIdx.ToUTF16(seg.SourceEnd)-srcStart, genStart, genLen)
	}

	return &VirtualCode{
		Source:          source,
		GeneratedText:   generated,
		Mappings:        records,
		SourceLength:    srcIdx.Len(),
		GeneratedLength: genIdx.Len(),
		sourceIndex:     srcIdx,
		generatedIndex:  genIdx,
	}
}

type entry struct {
	record int
	src    int
	srcLen int
	gen    int
	genLen int
}

func (me *VirtualCode) entries() []entry {
	var out []entry
	for r, rec := range me.Mappings {
		for i := range rec.SourceOffsets {
			out = append(out, entry{
				record: r,
				src:    rec.SourceOffsets[i],
				srcLen: rec.Lengths[i],
				gen:    rec.GeneratedOffsets[i],
				genLen: rec.GeneratedLengths[i],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].gen < out[j].gen })
	return out
}

// ToSourceOffset maps a generated UTF-16 offset to the source. The end of
// the generated text maps to the end of the last entry.
func (me *VirtualCode) ToSourceOffset(gen int) (src int, caps editbuf.Capabilities, ok bool) {
	entries := me.entries()
	for _, e := range entries {
		if e.gen <= gen && gen < e.gen+e.genLen {
			return e.src + min(gen-e.gen, e.srcLen), me.Mappings[e.record].Data, true
		}
	}
	if n := len(entries); n > 0 && gen == me.GeneratedLength {
		last := entries[n-1]
		return last.src + last.srcLen, me.Mappings[last.record].Data, true
	}
	return 0, editbuf.Capabilities{}, false
}

// ToGeneratedOffset maps a source UTF-16 offset to the first generated
// offset whose region enables feature. Copied source wins over synthesized
// text anchored at src, which wins over the end of a copied range.
func (me *VirtualCode) ToGeneratedOffset(src int, feature editbuf.Feature) (gen int, ok bool) {
	anchored, boundary := -1, -1
	for _, e := range me.entries() {
		if !me.Mappings[e.record].Data.Has(feature) {
			continue
		}
		if e.srcLen == 0 {
			if e.src == src && anchored < 0 {
				anchored = e.gen
			}
			continue
		}
		if e.src <= src && src < e.src+e.srcLen {
			return e.gen + (src - e.src), true
		}
		if src == e.src+e.srcLen && boundary < 0 {
			boundary = e.gen + e.genLen
		}
	}
	if anchored >= 0 {
		return anchored, true
	}
	if boundary >= 0 {
		return boundary, true
	}
	return 0, false
}

// Validate checks that the mapping entries cover the generated text exactly
// once and stay inside the source.
func (me *VirtualCode) Validate() error {
	var errs error
	next := 0
	for _, e := range me.entries() {
		if e.genLen <= 0 {
			errs = multierr.Append(errs, errors.Errorf("empty generated range at %d", e.gen))
			continue
		}
		switch {
		case e.gen > next:
			errs = multierr.Append(errs, errors.Errorf("generated range [%d,%d) is not mapped", next, e.gen))
		case e.gen < next:
			errs = multierr.Append(errs, errors.Errorf("generated offset %d is mapped twice", e.gen))
		}
		if e.src < 0 || e.src+e.srcLen > me.SourceLength {
			errs = multierr.Append(errs, errors.Errorf("source range [%d,%d) outside source of length %d", e.src, e.src+e.srcLen, me.SourceLength))
		}
		if e.srcLen != 0 && e.srcLen != e.genLen {
			errs = multierr.Append(errs, errors.Errorf("source length %d differs from generated length %d at %d", e.srcLen, e.genLen, e.gen))
		}
		if end := e.gen + e.genLen; end > next {
			next = end
		}
	}
	if next != me.GeneratedLength {
		errs = multierr.Append(errs, errors.Errorf("mappings end at %d, generated text has length %d", next, me.GeneratedLength))
	}
	return errs
}

// setSourceVerification overrides Verification on the text copied from the
// source unchanged. Replaced and synthesized text keep their capabilities.
func (me *VirtualCode) setSourceVerification(enabled bool) {
	for i := range me.Mappings {
		if me.Mappings[i].Data == editbuf.Full {
			me.Mappings[i].Data.Verification = enabled
		}
	}
}
