package quiz

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Answer is one submitted selection. Values are kept as decoded JSON so that
// a string "0" never matches a numeric 0.
type Answer struct {
	ID            any `json:"id"`
	SelectedIndex any `json:"selected_index"`
}

// Question is the scoring view of a stored question.
type Question struct {
	ID           any
	CorrectIndex any
}

type Result struct {
	Score    int `json:"score"`
	Total    int `json:"total"`
	Correct  int `json:"correct"`
	CourseID any `json:"courseId"` // echoed as submitted
}

// Score counts questions whose submitted index strictly equals the stored
// correct index. When an id is submitted twice the later answer counts.
func Score(questions []Question, answers []Answer) (correct, score int) {
	selected := make(map[key]any, len(answers))
	for _, a := range answers {
		k, ok := keyOf(a.ID)
		if !ok {
			continue
		}
		selected[k] = a.SelectedIndex
	}
	for _, q := range questions {
		k, ok := keyOf(q.ID)
		if !ok {
			continue
		}
		if got, ok := selected[k]; ok && strictEqual(got, q.CorrectIndex) {
			correct++
		}
	}
	if len(questions) == 0 {
		return correct, 0
	}
	return correct, int(math.Round(100 * float64(correct) / float64(len(questions))))
}

// key separates numbers from strings so 1 and "1" are different ids.
type key struct {
	num   bool
	value string
}

func keyOf(v any) (key, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return key{}, false
		}
		return key{num: true, value: formatFloat(f)}, true
	case float64:
		return key{num: true, value: formatFloat(x)}, true
	case int:
		return key{num: true, value: formatFloat(float64(x))}, true
	case int64:
		return key{num: true, value: formatFloat(float64(x))}, true
	case string:
		return key{value: x}, true
	}
	return key{}, false
}

// strictEqual compares two decoded JSON scalars without type coercion.
// nil never matches.
func strictEqual(a, b any) bool {
	ka, okA := keyOf(a)
	kb, okB := keyOf(b)
	if okA && okB {
		return ka == kb
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ba == bb
	}
	return false
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// parseAnswers decodes a JSON array of {id, selected_index} objects.
// Elements that are not objects are ignored.
func parseAnswers(raw json.RawMessage) ([]Answer, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, err
	}
	out := make([]Answer, 0, len(elems))
	for _, e := range elems {
		if m, ok := e.(map[string]any); ok {
			out = append(out, Answer{ID: m["id"], SelectedIndex: m["selected_index"]})
		}
	}
	return out, nil
}
