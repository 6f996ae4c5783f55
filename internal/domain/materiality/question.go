package materiality

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// QuestionID is an opaque question identifier.  The dashboard backend emits
// it either as a JSON string or as a number; both decode to the same value.
type QuestionID string

// UnmarshalJSON accepts a JSON string or number.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question_id: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// Question is one ESG measure as answered by a respondent or, after
// aggregation, by a whole stakeholder group.
type Question struct {
	QuestionID QuestionID `json:"question_id"`
	IndexCode  string     `json:"index_code"`
	Category   string     `json:"category,omitempty"`
	Priority   *float64   `json:"priority"`
	StatusQuo  *float64   `json:"status_quo"`
}

// IsEligible reports whether the question can be plotted: both values must be
// present and non-negative.  Null is the only "no data" marker; zero is a
// valid answer.
func (q Question) IsEligible() bool {
	return q.Priority != nil && q.StatusQuo != nil && *q.Priority >= 0 && *q.StatusQuo >= 0
}

// Float returns a pointer to v, for building questions in code.
func Float(v float64) *float64 { return &v }

// CategoryQuestions is one entry of a QuestionResponse.
type CategoryQuestions struct {
	// Category is the raw category name as supplied by the backend.
	Category string

	// Info is the backend's opaque category_info object, when the entry was
	// supplied in the {category_info, questions} form.
	Info json.RawMessage

	Questions []Question
}

// Kind returns the parsed category variant.
func (c CategoryQuestions) Kind() Category { return ParseCategory(c.Category) }

// QuestionResponse maps category names to questions while preserving the
// order in which categories were supplied.  It decodes from a JSON object
// whose values are either a question array or {category_info, questions}.
type QuestionResponse []CategoryQuestions

// Get returns the questions for a category name.
func (r QuestionResponse) Get(category string) ([]Question, bool) {
	for _, c := range r {
		if c.Category == category {
			return c.Questions, true
		}
	}
	return nil, false
}

// Categories returns the category names in supplied order.
func (r QuestionResponse) Categories() []string {
	out := make([]string, 0, len(r))
	for _, c := range r {
		out = append(out, c.Category)
	}
	return out
}

// QuestionCount returns the total number of questions across categories.
func (r QuestionResponse) QuestionCount() int {
	n := 0
	for _, c := range r {
		n += len(c.Questions)
	}
	return n
}

type categoryEnvelope struct {
	CategoryInfo json.RawMessage `json:"category_info,omitempty"`
	Questions    []Question      `json:"questions"`
}

// MarshalJSON writes the categories as an ordered JSON object.  Entries that
// carried category_info are written in envelope form.
func (r QuestionResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		questions := c.Questions
		if questions == nil {
			questions = []Question{}
		}
		var val []byte
		if len(c.Info) > 0 {
			val, err = json.Marshal(categoryEnvelope{CategoryInfo: c.Info, Questions: questions})
		} else {
			val, err = json.Marshal(questions)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object token by token so that key order survives.
// A null value decodes to an empty response.
func (r *QuestionResponse) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "question_response is not valid JSON")
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New(errors.ErrCodeMalformedResponseMap, "question_response must be an object")
	}

	out := QuestionResponse{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "failed to read category key")
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "failed to read category "+strconv.Quote(key))
		}
		entry, err := decodeCategoryValue(key, raw)
		if err != nil {
			return err
		}
		out = append(out, entry)
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "unterminated question_response object")
	}
	*r = out
	return nil
}

func decodeCategoryValue(key string, raw json.RawMessage) (CategoryQuestions, error) {
	entry := CategoryQuestions{Category: key}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		entry.Questions = []Question{}
		return entry, nil
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entry.Questions); err != nil {
			return entry, errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "invalid questions for category "+strconv.Quote(key))
		}
	case '{':
		var env categoryEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return entry, errors.Wrap(err, errors.ErrCodeMalformedResponseMap, "invalid category envelope "+strconv.Quote(key))
		}
		entry.Info = env.CategoryInfo
		entry.Questions = env.Questions
	default:
		return entry, errors.New(errors.ErrCodeMalformedResponseMap, "category "+strconv.Quote(key)+" must be an array or object")
	}
	if entry.Questions == nil {
		entry.Questions = []Question{}
	}
	return entry, nil
}
