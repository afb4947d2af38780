package training

import (
	"fmt"
	"math"
	"strings"
)

// Code identifies the activity a sensor packet belongs to.
type Code string

const (
	CodeSwimming Code = "SWM"
	CodeRunning  Code = "RUN"
	CodeWalking  Code = "WLK"
)

// ActivitySpec describes one entry of the dispatch table: its code, the
// reported activity label and the positional fields a packet must carry.
type ActivitySpec struct {
	Code         Code     `json:"code"`
	TrainingType string   `json:"training_type"`
	Fields       []string `json:"fields"`
}

// Codes lists every recognized packet code.
var Codes = []Code{CodeSwimming, CodeRunning, CodeWalking}

// Catalog returns the dispatch table in code order.
func Catalog() []ActivitySpec {
	specs := make([]ActivitySpec, 0, len(Codes))
	for _, c := range Codes {
		specs = append(specs, ActivitySpec{
			Code:         c,
			TrainingType: c.label(),
			Fields:       c.fields(),
		})
	}
	return specs
}

// ParseCode maps a raw code string onto the dispatch table.
func ParseCode(s string) (Code, error) {
	switch c := Code(strings.TrimSpace(s)); c {
	case CodeSwimming, CodeRunning, CodeWalking:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
}

func (c Code) label() string {
	switch c {
	case CodeSwimming:
		return "Swimming"
	case CodeRunning:
		return "Running"
	case CodeWalking:
		return "SportsWalking"
	}
	return ""
}

func (c Code) fields() []string {
	switch c {
	case CodeSwimming:
		return []string{"action", "duration", "weight", "length_pool", "count_pool"}
	case CodeRunning:
		return []string{"action", "duration", "weight"}
	case CodeWalking:
		return []string{"action", "duration", "weight", "height"}
	}
	return nil
}

// ReadPackage builds the session for code from its positional sensor fields.
func ReadPackage(code Code, data []float64) (Session, error) {
	switch code {
	case CodeSwimming:
		if err := checkArity(code, data); err != nil {
			return nil, err
		}
		action, err := whole("action", data[0])
		if err != nil {
			return nil, err
		}
		laps, err := whole("count_pool", data[4])
		if err != nil {
			return nil, err
		}
		s, err := NewSwimming(action, data[1], data[2], data[3], laps)
		if err != nil {
			return nil, err
		}
		return s, nil

	case CodeRunning:
		if err := checkArity(code, data); err != nil {
			return nil, err
		}
		action, err := whole("action", data[0])
		if err != nil {
			return nil, err
		}
		r, err := NewRunning(action, data[1], data[2])
		if err != nil {
			return nil, err
		}
		return r, nil

	case CodeWalking:
		if err := checkArity(code, data); err != nil {
			return nil, err
		}
		action, err := whole("action", data[0])
		if err != nil {
			return nil, err
		}
		w, err := NewSportsWalking(action, data[1], data[2], data[3])
		if err != nil {
			return nil, err
		}
		return w, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, string(code))
	}
}

func checkArity(code Code, data []float64) error {
	if want := len(code.fields()); len(data) != want {
		return fmt.Errorf("%w: %s expects %d fields (%s), got %d",
			ErrMalformedInput, code, want, strings.Join(code.fields(), ", "), len(data))
	}
	return nil
}

// whole converts a count field, rejecting fractional or out-of-range values.
func whole(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s=%v is not a whole number", ErrMalformedInput, field, v)
	}
	return int(v), nil
}
