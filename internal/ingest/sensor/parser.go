package sensor

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/ftracker/internal/models"
)

var (
	// codeRe matches the activity tag at the start of a packet: RUN, SWM, WLK...
	codeRe = regexp.MustCompile(`^[A-Za-z]{2,8}$`)

	// numberRe matches a plain or European decimal: 15000, 1.5, 0,75, -3
	numberRe = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?$`)
)

// Parse reads a sensor packet file. Each non-blank line is
//
//	[timestamp;]CODE;field;field;...
//
// where timestamp is RFC3339 or "2006-01-02 15:04". Lines starting with #
// are comments. Codes are not checked against the dispatch table here so
// that unknown activities surface as per-packet rejections.
func Parse(r io.Reader) ([]models.Packet, error) {
	scanner := bufio.NewScanner(r)
	var packets []models.Packet
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		packets = append(packets, p)
	}

	return packets, scanner.Err()
}

func parseLine(line string) (models.Packet, error) {
	parts := strings.Split(line, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var p models.Packet
	if !codeRe.MatchString(parts[0]) {
		at, err := parseRecordedAt(parts[0])
		if err != nil {
			return p, fmt.Errorf("expected activity code or timestamp, got %q", parts[0])
		}
		p.RecordedAt = &at
		parts = parts[1:]
		if len(parts) == 0 || !codeRe.MatchString(parts[0]) {
			return p, fmt.Errorf("missing activity code after timestamp")
		}
	}

	p.Code = strings.ToUpper(parts[0])
	fields := parts[1:]
	// A single trailing separator is tolerated; fields are positional, so
	// any other blank slot is an error.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	for i, f := range fields {
		if f == "" {
			return p, fmt.Errorf("field %d is empty", i+1)
		}
		if !numberRe.MatchString(f) {
			return p, fmt.Errorf("field %q is not a number", f)
		}
		p.Data = append(p.Data, parseEuropeanFloat(f))
	}
	return p, nil
}

// parseRecordedAt accepts RFC3339 and the shorter "2006-01-02 15:04".
func parseRecordedAt(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// parseEuropeanFloat converts a decimal string that may use a comma.
// "0,75" -> 0.75, "15000" -> 15000
func parseEuropeanFloat(s string) float64 {
	s = strings.ReplaceAll(s, ",", ".")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
