package eval

import (
	"math/rand"
	"strings"
	"time"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/rat"
	"github.com/takomusic/mfs/internal/value"
)

// nativeExports builds the Builtin export map for one std: module
// (spec §4.F.1). These modules have no MFS source: core/theory/drums/
// vocal are pure functions that could in principle be written in MFS
// but are given native bodies for brevity, while time/random need host
// capabilities and transform/curves operate on Clip/Array shapes the
// grammar has no literal syntax for constructing directly.
func nativeExports(canonical string) map[string]value.Value {
	switch canonical {
	case "std:core":
		return coreExports()
	case "std:time":
		return timeExports()
	case "std:random":
		return randomExports()
	case "std:transform":
		return transformExports()
	case "std:curves":
		return curvesExports()
	case "std:theory":
		return theoryExports()
	case "std:drums":
		return drumsExports()
	case "std:vocal":
		return vocalExports()
	default:
		return map[string]value.Value{}
	}
}

func builtin(name string, fn func(args []value.Value) (value.Value, error)) value.Value {
	return value.Builtin{Name: name, Fn: fn}
}

func coreExports() map[string]value.Value {
	return map[string]value.Value{
		"typeOf": builtin("core.typeOf", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, newErr(diag.CodeTypeMismatch, "typeOf expects 1 argument, got %d", len(args))
			}
			return value.String{V: args[0].Kind().String()}, nil
		}),
		"len": builtin("core.len", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, newErr(diag.CodeTypeMismatch, "len expects 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case value.Array:
				return value.Int{V: int64(len(v.Elements))}, nil
			case value.String:
				return value.Int{V: int64(len(v.V))}, nil
			default:
				return nil, newErr(diag.CodeTypeMismatch, "len requires an array or string, got %s", v.Kind())
			}
		}),
	}
}

func timeExports() map[string]value.Value {
	return map[string]value.Value{
		"nowMs": builtin("time.nowMs", func(args []value.Value) (value.Value, error) {
			return value.Int{V: time.Now().UnixMilli()}, nil
		}),
	}
}

func randomExports() map[string]value.Value {
	return map[string]value.Value{
		"float": builtin("random.float", func(args []value.Value) (value.Value, error) {
			return value.Float{V: rand.Float64()}, nil
		}),
		"int": builtin("random.int", func(args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, newErr(diag.CodeTypeMismatch, "random.int expects (min, max), got %d args", len(args))
			}
			lo, ok1 := args[0].(value.Int)
			hi, ok2 := args[1].(value.Int)
			if !ok1 || !ok2 {
				return nil, newErr(diag.CodeTypeMismatch, "random.int requires integer bounds")
			}
			if hi.V < lo.V {
				return nil, newErr(diag.CodeTypeMismatch, "random.int: max < min")
			}
			return value.Int{V: lo.V + rand.Int63n(hi.V-lo.V+1)}, nil
		}),
	}
}

// clipLength returns c's explicit length if set, else the max event
// end across its events (spec §4.H step 4, applied early here so
// transform.concat can shift a following clip's events).
func clipLength(c value.Clip) rat.Rat {
	if c.Length != nil {
		return *c.Length
	}
	max := rat.Zero
	for _, ev := range c.Events {
		if max.Less(ev.End) {
			max = ev.End
		}
	}
	return max
}

func transformExports() map[string]value.Value {
	return map[string]value.Value{
		"concat": builtin("transform.concat", func(args []value.Value) (value.Value, error) {
			var events []value.Event
			offset := rat.Zero
			for _, a := range args {
				c, ok := a.(value.Clip)
				if !ok {
					return nil, newErr(diag.CodeTypeMismatch, "transform.concat requires clip arguments, got %s", a.Kind())
				}
				for _, ev := range c.Events {
					shifted := ev
					start, err := ev.Start.Add(offset)
					if err != nil {
						return nil, newErr(diag.CodeTypeMismatch, "%s", err.Error())
					}
					end, err := ev.End.Add(offset)
					if err != nil {
						return nil, newErr(diag.CodeTypeMismatch, "%s", err.Error())
					}
					shifted.Start, shifted.End = start, end
					events = append(events, shifted)
				}
				next, err := offset.Add(clipLength(c))
				if err != nil {
					return nil, newErr(diag.CodeTypeMismatch, "%s", err.Error())
				}
				offset = next
			}
			return value.Clip{Events: events}, nil
		}),
		"repeat": builtin("transform.repeat", func(args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, newErr(diag.CodeTypeMismatch, "transform.repeat expects (clip, n), got %d args", len(args))
			}
			c, ok := args[0].(value.Clip)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "transform.repeat requires a clip, got %s", args[0].Kind())
			}
			n, ok := args[1].(value.Int)
			if !ok || n.V < 0 {
				return nil, newErr(diag.CodeTypeMismatch, "transform.repeat requires a non-negative integer count")
			}
			copies := make([]value.Value, n.V)
			for i := range copies {
				copies[i] = c
			}
			return transformConcat(copies)
		}),
	}
}

func transformConcat(clips []value.Value) (value.Value, error) {
	fn := transformExports()["concat"].(value.Builtin)
	return fn.Fn(clips)
}

func curvesExports() map[string]value.Value {
	return map[string]value.Value{
		"linear": builtin("curves.linear", func(args []value.Value) (value.Value, error) {
			if len(args) != 3 {
				return nil, newErr(diag.CodeTypeMismatch, "curves.linear expects (from, to, steps), got %d args", len(args))
			}
			from, ok1 := value.NumericValue(args[0])
			to, ok2 := value.NumericValue(args[1])
			steps, ok3 := args[2].(value.Int)
			if !ok1 || !ok2 || !ok3 || steps.V < 2 {
				return nil, newErr(diag.CodeTypeMismatch, "curves.linear requires numeric from/to and an integer steps >= 2")
			}
			points := make([]value.Value, steps.V)
			for i := int64(0); i < steps.V; i++ {
				t := float64(i) / float64(steps.V-1)
				points[i] = value.Float{V: from + (to-from)*t}
			}
			return value.Array{Elements: points}, nil
		}),
		"ease": builtin("curves.ease", func(args []value.Value) (value.Value, error) {
			if len(args) != 4 {
				return nil, newErr(diag.CodeTypeMismatch, "curves.ease expects (from, to, steps, kind), got %d args", len(args))
			}
			from, ok1 := value.NumericValue(args[0])
			to, ok2 := value.NumericValue(args[1])
			steps, ok3 := args[2].(value.Int)
			kind, ok4 := args[3].(value.String)
			if !ok1 || !ok2 || !ok3 || !ok4 || steps.V < 2 {
				return nil, newErr(diag.CodeTypeMismatch, "curves.ease requires numeric from/to, an integer steps >= 2, and a string kind")
			}
			points := make([]value.Value, steps.V)
			for i := int64(0); i < steps.V; i++ {
				t := float64(i) / float64(steps.V-1)
				points[i] = value.Float{V: from + (to-from)*easeFunc(kind.V, t)}
			}
			return value.Array{Elements: points}, nil
		}),
	}
}

func easeFunc(kind string, t float64) float64 {
	switch kind {
	case "easeIn":
		return t * t
	case "easeOut":
		return 1 - (1-t)*(1-t)
	case "easeInOut":
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - 2*(1-t)*(1-t)
	default:
		return t
	}
}

func theoryExports() map[string]value.Value {
	return map[string]value.Value{
		"transpose": builtin("theory.transpose", func(args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, newErr(diag.CodeTypeMismatch, "theory.transpose expects (pitch, semitones), got %d args", len(args))
			}
			return value.BinaryOp("+", args[0], args[1])
		}),
		"interval": builtin("theory.interval", func(args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, newErr(diag.CodeTypeMismatch, "theory.interval expects (pitch, pitch), got %d args", len(args))
			}
			return value.BinaryOp("-", args[0], args[1])
		}),
	}
}

func drumsExports() map[string]value.Value {
	standard := []string{"kick", "snare", "hihat", "openhat", "tom", "crash", "ride", "clap"}
	return map[string]value.Value{
		"names": builtin("drums.names", func(args []value.Value) (value.Value, error) {
			elems := make([]value.Value, len(standard))
			for i, n := range standard {
				elems[i] = value.String{V: n}
			}
			return value.Array{Elements: elems}, nil
		}),
	}
}

func vocalExports() map[string]value.Value {
	return map[string]value.Value{
		"syllableCount": builtin("vocal.syllableCount", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, newErr(diag.CodeTypeMismatch, "vocal.syllableCount expects 1 argument, got %d", len(args))
			}
			s, ok := args[0].(value.String)
			if !ok {
				return nil, newErr(diag.CodeTypeMismatch, "vocal.syllableCount requires a string, got %s", args[0].Kind())
			}
			return value.Int{V: int64(countSyllables(s.V))}, nil
		}),
	}
}

// countSyllables is a rough vowel-group heuristic, adequate for lyric
// phrasing hints, not a phonetic analyzer.
func countSyllables(s string) int {
	vowels := "aeiouyAEIOUY"
	count := 0
	prevVowel := false
	for _, r := range s {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if count == 0 && len(strings.TrimSpace(s)) > 0 {
		count = 1
	}
	return count
}
