package evaluation

import (
	"encoding/json"
	"fmt"
)

// ScoreKind tags the shape a ScoreValue carries, matching the Design
// Notes (§9) tagged union Bool | Num | Str | Cell | Raw.
type ScoreKind string

const (
	ScoreKindBool ScoreKind = "bool"
	ScoreKindNum  ScoreKind = "num"
	ScoreKindStr  ScoreKind = "str"
	ScoreKindCell ScoreKind = "cell"
	ScoreKindRaw  ScoreKind = "raw"
	ScoreKindNull ScoreKind = "null"
)

// ScoreValue is the normalized evaluator return value. Exactly one of the
// typed fields is meaningful, selected by Kind.
type ScoreValue struct {
	Kind ScoreKind
	Bool bool
	Num  float64
	Str  string
	Cell EvaluationResultCell
	Raw  any
}

// BoolValue constructs a boolean ScoreValue.
func BoolValue(b bool) ScoreValue { return ScoreValue{Kind: ScoreKindBool, Bool: b} }

// NumValue constructs a numeric ScoreValue.
func NumValue(n float64) ScoreValue { return ScoreValue{Kind: ScoreKindNum, Num: n} }

// StrValue constructs a string ScoreValue.
func StrValue(s string) ScoreValue { return ScoreValue{Kind: ScoreKindStr, Str: s} }

// CellValue constructs a structured-cell ScoreValue.
func CellValue(c EvaluationResultCell) ScoreValue { return ScoreValue{Kind: ScoreKindCell, Cell: c} }

// RawValue constructs a ScoreValue wrapping an arbitrary JSON object.
func RawValue(v any) ScoreValue { return ScoreValue{Kind: ScoreKindRaw, Raw: v} }

// NullValue is the ScoreValue produced for a structured return whose
// `value` is nil, and for a JSON null decoded by UnmarshalJSON. A bare nil
// evaluator return normalizes to BoolValue(false) and a failed call to
// NumValue(0) instead (see NormalizeScore).
func NullValue() ScoreValue { return ScoreValue{Kind: ScoreKindNull} }

// MarshalJSON renders the ScoreValue as the bare underlying value, never
// as a wrapper object, so the round-trip laws in spec.md §8 hold: a
// primitive serializes as a primitive, a cell serializes as
// {type, value} verbatim.
func (v ScoreValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ScoreKindBool:
		return json.Marshal(v.Bool)
	case ScoreKindNum:
		return json.Marshal(v.Num)
	case ScoreKindStr:
		return json.Marshal(v.Str)
	case ScoreKindCell:
		return json.Marshal(v.Cell)
	case ScoreKindRaw:
		return json.Marshal(v.Raw)
	case ScoreKindNull:
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("evaluation: unknown score kind %q", v.Kind)
	}
}

// UnmarshalJSON reconstructs a ScoreValue from its bare JSON form,
// detecting a tagged cell by the presence of a "type"/"value" shape
// where "value" is itself an object of numbers.
func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*v = fromAny(probe)
	return nil
}

func fromAny(raw any) ScoreValue {
	switch val := raw.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(val)
	case float64:
		return NumValue(val)
	case string:
		return StrValue(val)
	case map[string]any:
		if cell, ok := asCell(val); ok {
			return CellValue(cell)
		}
		return RawValue(val)
	default:
		return RawValue(val)
	}
}

func asCell(m map[string]any) (EvaluationResultCell, bool) {
	typ, hasType := m["type"].(string)
	rawVals, hasValue := m["value"].(map[string]any)
	if !hasType || !hasValue || len(m) != 2 {
		return EvaluationResultCell{}, false
	}
	metrics := make(map[string]float64, len(rawVals))
	for k, v := range rawVals {
		n, ok := v.(float64)
		if !ok {
			return EvaluationResultCell{}, false
		}
		metrics[k] = n
	}
	return EvaluationResultCell{Type: typ, Value: metrics}, true
}

// JobFailureScore synthesizes the evaluator entry for a job that errored:
// every registered evaluator gets a zero-scored, failed entry without ever
// being invoked (spec.md §4.4.1.c.i).
func JobFailureScore(evaluatorName string, jobErr error) EvaluatorScore {
	f := false
	return EvaluatorScore{
		EvaluatorName: evaluatorName,
		Score:         Score{Value: NumValue(0), Pass: &f, Explanation: "job failed"},
		Error:         jobErr.Error(),
	}
}

// NormalizeScore is the single choke point spec.md's Design Notes (§9)
// calls for: every raw evaluator return (or panic-recovered value) passes
// through here before it becomes part of the result tree. Table per
// spec.md §4.5.
func NormalizeScore(raw any, callErr error) EvaluatorScore {
	if callErr != nil {
		f := false
		return EvaluatorScore{
			Score: Score{Value: NumValue(0), Pass: &f},
			Error: callErr.Error(),
		}
	}

	switch v := raw.(type) {
	case nil:
		f := false
		return EvaluatorScore{Score: Score{Value: BoolValue(false), Pass: &f}}
	case bool:
		p := v
		return EvaluatorScore{Score: Score{Value: BoolValue(v), Pass: &p}}
	case int:
		return EvaluatorScore{Score: Score{Value: NumValue(float64(v))}}
	case float64:
		return EvaluatorScore{Score: Score{Value: NumValue(v)}}
	case string:
		return EvaluatorScore{Score: Score{Value: StrValue(v)}}
	case EvaluationResultCell:
		return EvaluatorScore{Score: Score{Value: CellValue(v)}}
	case ScoreValue:
		return EvaluatorScore{Score: Score{Value: v}}
	case Score:
		return EvaluatorScore{Score: v}
	case *Score:
		if v == nil {
			f := false
			return EvaluatorScore{Score: Score{Value: BoolValue(false), Pass: &f}}
		}
		return EvaluatorScore{Score: *v}
	case map[string]any:
		return normalizeStructured(v)
	default:
		return EvaluatorScore{Score: Score{Value: RawValue(v)}}
	}
}

// normalizeStructured handles the `{ value, pass?, explanation? }` shape
// from spec.md §3, including the nested EvaluationResultCell case.
func normalizeStructured(m map[string]any) EvaluatorScore {
	inner, hasValue := m["value"]
	if !hasValue {
		// No `value` key: treat the whole object as a raw structured score.
		return EvaluatorScore{Score: Score{Value: RawValue(m)}}
	}

	score := Score{}
	switch iv := inner.(type) {
	case bool:
		score.Value = BoolValue(iv)
	case int:
		score.Value = NumValue(float64(iv))
	case float64:
		score.Value = NumValue(iv)
	case string:
		score.Value = StrValue(iv)
	case EvaluationResultCell:
		score.Value = CellValue(iv)
	case map[string]any:
		if cell, ok := asCell(iv); ok {
			score.Value = CellValue(cell)
		} else {
			score.Value = RawValue(iv)
		}
	case nil:
		score.Value = NullValue()
	default:
		score.Value = RawValue(iv)
	}

	if p, ok := m["pass"].(bool); ok {
		score.Pass = &p
	}
	if explanation, ok := m["explanation"].(string); ok {
		score.Explanation = explanation
	}
	return EvaluatorScore{Score: score}
}
