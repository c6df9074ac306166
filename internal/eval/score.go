package eval

import (
	"github.com/takomusic/mfs/internal/ast"
	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/rat"
	"github.com/takomusic/mfs/internal/value"
)

const defaultVelocity = 100

func (e *Evaluator) evalScore(x *ast.ScoreExpr, env *value.Env) (value.Value, error) {
	sc := value.Score{Meta: make(map[string]value.Value)}

	for _, item := range x.Items {
		switch b := item.(type) {
		case *ast.MetaBlock:
			for _, f := range b.Fields {
				v, err := e.evalExpr(f.Value, env)
				if err != nil {
					return nil, err
				}
				sc.Meta[f.Key] = v
			}
		case *ast.TempoBlock:
			for _, te := range b.Entries {
				pos, err := e.evalPosExpr(te.At, env)
				if err != nil {
					return nil, err
				}
				bpmVal, err := e.evalExpr(te.BPM, env)
				if err != nil {
					return nil, err
				}
				bpm, ok := value.NumericValue(bpmVal)
				if !ok {
					return nil, newErr(diag.CodeTypeMismatch, "tempo value must be numeric, got %s", bpmVal.Kind())
				}
				var unit *rat.Rat
				if te.Unit != nil {
					unitVal, err := e.evalExpr(te.Unit, env)
					if err != nil {
						return nil, err
					}
					u, err := valueToRat(unitVal)
					if err != nil {
						return nil, err
					}
					unit = &u
				}
				sc.TempoMap = append(sc.TempoMap, value.TempoEntry{At: pos, BPM: bpm, Unit: unit})
			}
		case *ast.MeterBlock:
			for _, me := range b.Entries {
				pos, err := e.evalPosExpr(me.At, env)
				if err != nil {
					return nil, err
				}
				num, err := e.evalIntExpr(me.Numerator, env)
				if err != nil {
					return nil, err
				}
				den, err := e.evalIntExpr(me.Denominator, env)
				if err != nil {
					return nil, err
				}
				sc.MeterMap = append(sc.MeterMap, value.MeterEntry{At: pos, Numerator: int(num), Denominator: int(den)})
			}
		case *ast.SoundDecl:
			fields := make(map[string]value.Value, len(b.Fields))
			for _, f := range b.Fields {
				v, err := e.evalExpr(f.Value, env)
				if err != nil {
					return nil, err
				}
				fields[f.Key] = v
			}
			sc.Sounds = append(sc.Sounds, value.Sound{ID: b.ID, Kind: b.Kind, Fields: fields})
		case *ast.TrackDecl:
			var placements []value.Placement
			for _, pl := range b.Placements {
				pos, err := e.evalPosExpr(pl.At, env)
				if err != nil {
					return nil, err
				}
				clipVal, err := e.evalExpr(pl.Clip, env)
				if err != nil {
					return nil, err
				}
				clip, ok := clipVal.(value.Clip)
				if !ok {
					return nil, newErr(diag.CodeTypeMismatch, "place requires a clip, got %s", clipVal.Kind())
				}
				placements = append(placements, value.Placement{At: pos, Clip: clip})
			}
			sc.Tracks = append(sc.Tracks, value.Track{Name: b.Name, Role: b.Role, Sound: b.Sound, Placements: placements})
		case *ast.ScoreMarker:
			pos, err := e.evalPosExpr(b.At, env)
			if err != nil {
				return nil, err
			}
			labelVal, err := e.evalExpr(b.Label, env)
			if err != nil {
				return nil, err
			}
			label, ok := labelVal.(value.String)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "marker label must be a string, got %s", labelVal.Kind())
			}
			sc.Markers = append(sc.Markers, value.Marker{At: pos, Kind: b.Kind, Label: label.V})
		}
	}
	return sc, nil
}

func (e *Evaluator) evalIntExpr(expr ast.Expr, env *value.Env) (int64, error) {
	v, err := e.evalExpr(expr, env)
	if err != nil {
		return 0, err
	}
	i, ok := v.(value.Int)
	if !ok {
		return 0, newErr(diag.CodeTypeMismatch, "expected an integer, got %s", v.Kind())
	}
	return i.V, nil
}

// evalPosExpr resolves a score-position expression to an unresolved
// value.Pos (spec §4.H): a direct bar:beat literal, an explicit
// rational/integer offset, or a bar:beat plus a rational offset
// (`2:1 + 1/8`), recognized structurally rather than via a generic "+"
// over value.Time, which has no such arithmetic of its own.
func (e *Evaluator) evalPosExpr(expr ast.Expr, env *value.Env) (value.Pos, error) {
	if be, ok := expr.(*ast.BinaryExpr); ok && be.Op == ast.OpAdd {
		leftV, err := e.evalExpr(be.Left, env)
		if err != nil {
			return value.Pos{}, err
		}
		if base, ok := leftV.(value.Time); ok {
			rightV, err := e.evalExpr(be.Right, env)
			if err != nil {
				return value.Pos{}, err
			}
			offRat, err := valueToRat(rightV)
			if err != nil {
				return value.Pos{}, err
			}
			return value.OffsetPos(base.Bar, base.Beat, base.Sub, offRat), nil
		}
	}

	v, err := e.evalExpr(expr, env)
	if err != nil {
		return value.Pos{}, err
	}
	switch t := v.(type) {
	case value.Time:
		return value.RefPos(t.Bar, t.Beat, t.Sub), nil
	case value.Duration:
		return value.ExplicitPos(t.Rat()), nil
	case value.Int:
		return value.ExplicitPos(rat.FromInt(t.V)), nil
	default:
		return value.Pos{}, newErr(diag.CodeTypeMismatch, "expected a position (bar:beat or duration), got %s", v.Kind())
	}
}

// valueToRat converts a Value to an exact rat.Rat for position/duration
// math; floats are rejected (spec §9: duration arithmetic stays exact).
func valueToRat(v value.Value) (rat.Rat, error) {
	switch t := v.(type) {
	case value.Duration:
		return t.Rat(), nil
	case value.Int:
		return rat.FromInt(t.V), nil
	default:
		return rat.Rat{}, newErr(diag.CodeTypeMismatch, "expected a duration or integer, got %s", v.Kind())
	}
}

// evalClip walks a clip body maintaining the statement-level cursor
// (spec §4.G): at() sets it, rest() emits and advances it, note/chord/
// hit emit at the cursor and advance it; cc/automation/marker are
// instantaneous and do not advance it.
func (e *Evaluator) evalClip(x *ast.ClipExpr, env *value.Env) (value.Value, error) {
	cursor := rat.Zero
	var events []value.Event

	advance := func(dur rat.Rat) (rat.Rat, error) {
		end, err := cursor.Add(dur)
		if err != nil {
			return rat.Rat{}, newErr(diag.CodeTypeMismatch, "%s", err.Error())
		}
		return end, nil
	}

	for _, stmt := range x.Stmts {
		switch s := stmt.(type) {
		case *ast.AtStmt:
			v, err := e.evalExpr(s.Pos, env)
			if err != nil {
				return nil, err
			}
			r, err := valueToRat(v)
			if err != nil {
				return nil, err
			}
			cursor = r

		case *ast.RestStmt:
			durV, err := e.evalExpr(s.Duration, env)
			if err != nil {
				return nil, err
			}
			durRat, err := valueToRat(durV)
			if err != nil {
				return nil, err
			}
			end, err := advance(durRat)
			if err != nil {
				return nil, err
			}
			events = append(events, value.Event{Kind: value.EventRest, Start: cursor, End: end})
			cursor = end

		case *ast.NoteStmt:
			pitchV, err := e.evalExpr(s.Pitch, env)
			if err != nil {
				return nil, err
			}
			pitch, ok := pitchV.(value.Pitch)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "note() requires a pitch, got %s", pitchV.Kind())
			}
			durRat, vel, err := e.evalDurationAndVelocity(s.Duration, s.Velocity, env)
			if err != nil {
				return nil, err
			}
			end, err := advance(durRat)
			if err != nil {
				return nil, err
			}
			events = append(events, value.Event{
				Kind: value.EventNote, Start: cursor, End: end,
				Pitches: []int{pitch.MIDI}, Velocity: vel,
			})
			cursor = end

		case *ast.ChordStmt:
			pitchesV, err := e.evalExpr(s.Pitches, env)
			if err != nil {
				return nil, err
			}
			arr, ok := pitchesV.(value.Array)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "chord() requires an array of pitches, got %s", pitchesV.Kind())
			}
			pitches := make([]int, len(arr.Elements))
			for i, el := range arr.Elements {
				p, ok := el.(value.Pitch)
				if !ok {
					return nil, newErr(diag.CodeTypeMismatch, "chord() elements must be pitches, got %s", el.Kind())
				}
				pitches[i] = p.MIDI
			}
			durRat, vel, err := e.evalDurationAndVelocity(s.Duration, s.Velocity, env)
			if err != nil {
				return nil, err
			}
			end, err := advance(durRat)
			if err != nil {
				return nil, err
			}
			events = append(events, value.Event{
				Kind: value.EventChord, Start: cursor, End: end,
				Pitches: pitches, Velocity: vel,
			})
			cursor = end

		case *ast.HitStmt:
			nameV, err := e.evalExpr(s.Name, env)
			if err != nil {
				return nil, err
			}
			name, ok := nameV.(value.String)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "hit() requires a string name, got %s", nameV.Kind())
			}
			durRat, vel, err := e.evalDurationAndVelocity(s.Duration, s.Velocity, env)
			if err != nil {
				return nil, err
			}
			end, err := advance(durRat)
			if err != nil {
				return nil, err
			}
			events = append(events, value.Event{
				Kind: value.EventHit, Start: cursor, End: end,
				Name: name.V, Velocity: vel,
			})
			cursor = end

		case *ast.CCStmt:
			ctrl, err := e.evalIntExpr(s.Controller, env)
			if err != nil {
				return nil, err
			}
			if ctrl < 0 || ctrl > 127 {
				return nil, newErr(diag.CodeCCOutOfRange, "cc controller %d out of range 0-127", ctrl)
			}
			valV, err := e.evalExpr(s.Value, env)
			if err != nil {
				return nil, err
			}
			val, ok := value.NumericValue(valV)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "cc value must be numeric, got %s", valV.Kind())
			}
			events = append(events, value.Event{
				Kind: value.EventCC, Start: cursor, End: cursor,
				CCValue: int(val),
			})

		case *ast.AutomationStmt:
			paramV, err := e.evalExpr(s.Parameter, env)
			if err != nil {
				return nil, err
			}
			param, ok := paramV.(value.String)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "automation() parameter must be a string, got %s", paramV.Kind())
			}
			valV, err := e.evalExpr(s.Value, env)
			if err != nil {
				return nil, err
			}
			val, ok := value.NumericValue(valV)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "automation value must be numeric, got %s", valV.Kind())
			}
			events = append(events, value.Event{
				Kind: value.EventAutomation, Start: cursor, End: cursor,
				Name: param.V, Value: val,
			})

		case *ast.MarkerStmt:
			labelV, err := e.evalExpr(s.Label, env)
			if err != nil {
				return nil, err
			}
			label, ok := labelV.(value.String)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "marker() label must be a string, got %s", labelV.Kind())
			}
			events = append(events, value.Event{Kind: value.EventMarker, Start: cursor, End: cursor, Name: label.V})
		}
	}

	return value.Clip{Events: events}, nil
}

func (e *Evaluator) evalDurationAndVelocity(durExpr, velExpr ast.Expr, env *value.Env) (rat.Rat, int, error) {
	durV, err := e.evalExpr(durExpr, env)
	if err != nil {
		return rat.Rat{}, 0, err
	}
	durRat, err := valueToRat(durV)
	if err != nil {
		return rat.Rat{}, 0, err
	}
	vel := defaultVelocity
	if velExpr != nil {
		velV, err := e.evalExpr(velExpr, env)
		if err != nil {
			return rat.Rat{}, 0, err
		}
		i, ok := velV.(value.Int)
		if !ok {
			return rat.Rat{}, 0, newErr(diag.CodeTypeMismatch, "velocity must be an integer, got %s", velV.Kind())
		}
		vel = int(i.V)
	}
	return durRat, vel, nil
}
