package capture

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ayusman/mugglewand/internal/pipeline"
)

// ReplaySource replays a recorded session file. Files ending in .csv hold
// "x,y,intensity" rows with an optional header; anything else is read as
// JSON lines of {"x":..,"y":..,"intensity":..}.
type ReplaySource struct {
	*MockSource
	path string
}

// OpenReplay loads the whole recording at path.
func OpenReplay(path string, loop bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	var samples []pipeline.Sample
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		samples, err = ReadCSV(f)
	} else {
		samples, err = ReadJSONLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read replay %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("read replay %s: %w", path, ErrNoSample)
	}

	return &ReplaySource{MockSource: NewMockSource(samples, loop), path: path}, nil
}

// Path returns the file the source was loaded from.
func (r *ReplaySource) Path() string {
	return r.path
}

// ReadJSONLines parses one sample per non-blank line.
func ReadJSONLines(r io.Reader) ([]pipeline.Sample, error) {
	var samples []pipeline.Sample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var s pipeline.Sample
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// ReadCSV parses x,y,intensity rows. A first row whose x column is not a
// number is treated as a header.
func ReadCSV(r io.Reader) ([]pipeline.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var samples []pipeline.Sample
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		x, err := strconv.Atoi(rec[0])
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: x: %w", row, err)
		}
		y, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: y: %w", row, err)
		}
		intensity, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: intensity: %w", row, err)
		}
		samples = append(samples, pipeline.Sample{X: x, Y: y, Intensity: intensity})
	}
	return samples, nil
}

// WriteJSONLines writes samples in the format ReadJSONLines accepts.
func WriteJSONLines(w io.Writer, samples []pipeline.Sample) error {
	enc := json.NewEncoder(w)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}
