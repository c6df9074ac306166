package scoreir

import (
	"sort"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/rat"
	"github.com/takomusic/mfs/internal/value"
)

// ticksPerWhole is the 480-ticks-per-quarter MIDI convention already
// used for tick-count duration literals (internal/parser/literals.go);
// the normalizer reuses it to fold a bar:beat position's sub-tick
// component into an exact fraction of a whole note.
const ticksPerWhole = 1920

var defaultUnit = rat.MustNew(1, 4)

// meterSeg is one resolved segment of the meter timeline: the meter
// in effect from bar AtBar onward, anchored at absolute position At.
type meterSeg struct {
	At          rat.Rat
	AtBar       int
	Numerator   int
	Denominator int
}

func barLength(numerator, denominator int) rat.Rat {
	length, _ := rat.FromInt(int64(numerator)).Div(rat.FromInt(int64(denominator)))
	return length
}

// normalizer carries the state threaded through one resolution pass:
// the reporter findings go to, and the meter timeline later positions
// resolve against.
type normalizer struct {
	reporter *diag.Reporter
	segs     []meterSeg
}

// Normalize resolves every unresolved value.Pos in sc into an absolute
// rat.Rat and assembles the fully-resolved ScoreIR (spec §4.H).
// sourceHash is the caller-computed digest of the compiled source
// (spec §3.6's `tako.source_hash`); generator names the producing tool.
func Normalize(sc *value.Score, reporter *diag.Reporter, generator, sourceHash string) *ScoreIR {
	n := &normalizer{reporter: reporter}

	tempoMap := n.resolveMeterThenTempo(sc)

	ir := &ScoreIR{
		Tako: Info{
			IRVersion:  currentIRVersion,
			Generator:  generator,
			SourceHash: sourceHash,
		},
		Meta:     convertMeta(sc.Meta),
		TempoMap: tempoMap,
		MeterMap: n.meterMapJSON(),
	}

	for _, s := range sc.Sounds {
		ir.Sounds = append(ir.Sounds, Sound{ID: s.ID, Kind: s.Kind, Fields: convertMeta(s.Fields)})
	}

	for _, t := range sc.Tracks {
		track := Track{Name: t.Name, Role: t.Role, Sound: t.Sound}
		for _, pl := range t.Placements {
			track.Placements = append(track.Placements, n.resolvePlacement(pl))
		}
		ir.Tracks = append(ir.Tracks, track)
	}

	for _, m := range sc.Markers {
		at := n.resolvePos(m.At)
		ir.Markers = append(ir.Markers, Marker{Pos: toRatJSON(at), Kind: m.Kind, Label: m.Label})
	}

	return ir
}

// resolveMeterThenTempo resolves the meter map first (building the
// segment timeline every other position resolves against), then the
// tempo map against that finished timeline, per spec §4.H steps 1-2.
func (n *normalizer) resolveMeterThenTempo(sc *value.Score) []TempoEntry {
	for _, me := range sc.MeterMap {
		at := n.resolvePos(me.At)
		if !n.isBarStart(me.At, at) {
			n.reporter.Report(diag.Diagnostic{
				Severity: diag.Warning,
				Code:     diag.CodeMeterNotAtBarStart,
				Message:  "meter change does not land on a bar boundary",
			})
		}
		n.segs = append(n.segs, meterSeg{At: at, AtBar: me.At.Bar, Numerator: me.Numerator, Denominator: me.Denominator})
	}
	if len(n.segs) == 0 {
		n.reporter.Report(diag.Diagnostic{
			Severity: diag.Warning,
			Code:     diag.CodeMeterMapSynthesized,
			Message:  "meter_map empty; synthesizing 4/4 at 0/1",
		})
		n.segs = append(n.segs, meterSeg{At: rat.Zero, AtBar: 1, Numerator: 4, Denominator: 4})
	}
	sort.SliceStable(n.segs, func(i, j int) bool { return n.segs[i].At.Less(n.segs[j].At) })

	var tempoMap []TempoEntry
	for _, te := range sc.TempoMap {
		at := n.resolvePos(te.At)
		unit := defaultUnit
		if te.Unit != nil {
			unit = *te.Unit
		}
		tempoMap = append(tempoMap, TempoEntry{At: toRatJSON(at), BPM: te.BPM, Unit: toRatJSON(unit)})
	}
	if len(tempoMap) == 0 {
		n.reporter.Report(diag.Diagnostic{
			Severity: diag.Warning,
			Code:     diag.CodeTempoMapSynthesized,
			Message:  "tempo_map empty; synthesizing 120bpm at 0/1",
		})
		tempoMap = append(tempoMap, TempoEntry{At: toRatJSON(rat.Zero), BPM: 120, Unit: toRatJSON(defaultUnit)})
	}
	sort.SliceStable(tempoMap, func(i, j int) bool {
		return (rat.Rat{N: tempoMap[i].At.N, D: tempoMap[i].At.D}).Less(rat.Rat{N: tempoMap[j].At.N, D: tempoMap[j].At.D})
	})
	return tempoMap
}

func (n *normalizer) meterMapJSON() []MeterEntry {
	out := make([]MeterEntry, len(n.segs))
	for i, s := range n.segs {
		out[i] = MeterEntry{At: toRatJSON(s.At), Numerator: s.Numerator, Denominator: s.Denominator}
	}
	return out
}

// isBarStart reports whether a meter entry's position lands on a bar
// boundary. A PosRef/PosOffset is checked the cheap way (beat 1, no
// sub-tick offset). A PosExplicit rational has no bar:beat to read, so
// it is checked against the meter segment already active at at: the
// entry is a bar start iff at falls an exact whole number of bars
// after that segment's own start. The very first meter entry has no
// prior segment to misalign with, so it trivially passes.
func (n *normalizer) isBarStart(p value.Pos, at rat.Rat) bool {
	if p.Kind != value.PosExplicit {
		return p.Beat == 1 && p.Sub <= 0
	}
	if len(n.segs) == 0 {
		return true
	}
	prev := n.segs[len(n.segs)-1]
	offset, err := at.Sub(prev.At)
	if err != nil {
		return false
	}
	q, err := offset.Div(barLength(prev.Numerator, prev.Denominator))
	if err != nil {
		return false
	}
	return q.D == 1
}

// resolvePos turns one unresolved value.Pos into an absolute rat.Rat
// of whole notes from the score start, using the meter timeline built
// so far (spec §4.H step 3). It reports BeatOutOfRange and negative
// resolved times but still returns the computed value, so downstream
// resolution can continue collecting further diagnostics.
func (n *normalizer) resolvePos(p value.Pos) rat.Rat {
	if p.Kind == value.PosExplicit {
		n.checkNegative(p.Rat)
		return p.Rat
	}

	seg := n.activeSegment(p.Bar)
	if p.Beat > seg.Numerator {
		n.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Code:     diag.CodeBeatOutOfRange,
			Message:  "beat exceeds the active meter's numerator",
		})
	}

	barsIn := p.Bar - seg.AtBar
	result, _ := seg.At.Add(scaleBarLength(seg.Numerator, seg.Denominator, barsIn))
	beatOffset := rat.MustNew(int64(p.Beat-1), int64(seg.Denominator))
	result, _ = result.Add(beatOffset)
	if p.Sub > 0 {
		tickOffset := rat.MustNew(int64(p.Sub), ticksPerWhole)
		result, _ = result.Add(tickOffset)
	}
	if p.Kind == value.PosOffset {
		result, _ = result.Add(p.Off)
	}

	n.checkNegative(result)
	return result
}

func (n *normalizer) checkNegative(r rat.Rat) {
	if r.Less(rat.Zero) {
		n.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Code:     diag.CodeNegativeResolvedTime,
			Message:  "resolved position is negative",
		})
	}
}

// scaleBarLength returns the length of n whole bars under the given
// meter; n may be 0 (no bars elapsed since the segment started).
func scaleBarLength(numerator, denominator, n int) rat.Rat {
	total, _ := barLength(numerator, denominator).Mul(rat.FromInt(int64(n)))
	return total
}

// activeSegment returns the meter segment in effect at the given bar:
// the last segment whose AtBar is <= bar, or the first segment if bar
// precedes every recorded change. While the first meter entry is being
// resolved no segment exists yet, and 4/4 from bar 1 at 0/1 is used.
func (n *normalizer) activeSegment(bar int) meterSeg {
	if len(n.segs) == 0 {
		return meterSeg{At: rat.Zero, AtBar: 1, Numerator: 4, Denominator: 4}
	}
	active := n.segs[0]
	for _, s := range n.segs {
		if s.AtBar <= bar {
			active = s
		}
	}
	return active
}

func (n *normalizer) resolvePlacement(pl value.Placement) Placement {
	at := n.resolvePos(pl.At)
	return Placement{At: toRatJSON(at), Clip: n.resolveClip(pl.Clip, at)}
}

// resolveClip folds each clip-relative event into an absolute
// position (placementAt + event.Start/End), derives the clip's
// length if it was not given explicitly, and stable-sorts events by
// resolved start (spec §4.H step 4).
func (n *normalizer) resolveClip(c value.Clip, placementAt rat.Rat) Clip {
	events := make([]Event, len(c.Events))
	maxEnd := rat.Zero
	for i, ev := range c.Events {
		start, _ := placementAt.Add(ev.Start)
		end, _ := placementAt.Add(ev.End)
		events[i] = Event{
			Type:     eventTypeName(ev.Kind),
			Start:    toRatJSON(start),
			End:      toRatJSON(end),
			Pitches:  ev.Pitches,
			Name:     ev.Name,
			Velocity: ev.Velocity,
			CCValue:  ev.CCValue,
			Value:    ev.Value,
		}
		if maxEnd.Less(ev.End) {
			maxEnd = ev.End
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return (rat.Rat{N: events[i].Start.N, D: events[i].Start.D}).Less(rat.Rat{N: events[j].Start.N, D: events[j].Start.D})
	})

	length := maxEnd
	if c.Length != nil {
		length = *c.Length
	}
	return Clip{Events: events, Length: toRatJSON(length)}
}

func eventTypeName(k value.EventKind) string {
	switch k {
	case value.EventNote:
		return "note"
	case value.EventChord:
		return "chord"
	case value.EventHit:
		return "hit"
	case value.EventRest:
		return "rest"
	case value.EventCC:
		return "cc"
	case value.EventAutomation:
		return "automation"
	case value.EventMarker:
		return "marker"
	default:
		return "unknown"
	}
}

func toRatJSON(r rat.Rat) RatJSON { return RatJSON{N: r.N, D: r.D} }

// convertMeta turns an evaluator-level map[string]value.Value into a
// JSON-friendly map, for the score's `meta` block and a sound's
// free-form field set.
func convertMeta(m map[string]value.Value) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = valueToJSON(v)
	}
	return out
}

func valueToJSON(v value.Value) interface{} {
	switch x := v.(type) {
	case value.Int:
		return x.V
	case value.Float:
		return x.V
	case value.Bool:
		return x.V
	case value.String:
		return x.V
	case value.Null:
		return nil
	case value.Pitch:
		return x.MIDI
	case value.Duration:
		return toRatJSON(x.Rat())
	case value.Array:
		out := make([]interface{}, len(x.Elements))
		for i, e := range x.Elements {
			out[i] = valueToJSON(e)
		}
		return out
	case value.Object:
		out := make(map[string]interface{}, len(x.Fields))
		for k, f := range x.Fields {
			out[k] = valueToJSON(f)
		}
		return out
	default:
		return v.String()
	}
}
