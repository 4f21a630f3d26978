package world

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// WritePointsCSV writes one "x,y" row per city.
func WritePointsCSV(w io.Writer, points []orb.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p[0], 'g', -1, 64),
			strconv.FormatFloat(p[1], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPointsCSV reads rows written by WritePointsCSV. A leading "x,y" header
// is optional.
func ReadPointsCSV(r io.Reader) ([]orb.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && strings.EqualFold(records[0][0], "x") {
		records = records[1:]
	}

	points := make([]orb.Point, 0, len(records))
	for i, rec := range records {
		x, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse x: %w", i+1, err)
		}
		y, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse y: %w", i+1, err)
		}
		points = append(points, orb.Point{x, y})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no cities found")
	}
	return points, nil
}

func ReadPointsFile(path string) ([]orb.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	points, err := ReadPointsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read cities %s: %w", path, err)
	}
	return points, nil
}

func WritePointsFile(path string, points []orb.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePointsCSV(f, points); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
