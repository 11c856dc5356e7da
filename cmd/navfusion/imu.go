package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milosgajdos/go-navfusion/fusion"
)

// imuFields is the number of values of an IMU CSV record: q0,q1,q2,q3,ax,ay,az
const imuFields = 7

// imuReader reads IMU samples from CSV records
type imuReader struct {
	r *csv.Reader
}

func newIMUReader(r io.Reader) *imuReader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = imuFields
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &imuReader{r: cr}
}

// Read returns the next sample. It returns io.EOF at the end of input.
func (ir *imuReader) Read() (fusion.Sample, error) {
	rec, err := ir.r.Read()
	if err != nil {
		return fusion.Sample{}, err
	}

	var v [imuFields]float64
	for i, f := range rec {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			line, _ := ir.r.FieldPos(i)
			return fusion.Sample{}, fmt.Errorf("imu line %d field %d: %w", line, i, err)
		}
	}

	return fusion.Sample{
		Q:     fusion.Quaternion{v[0], v[1], v[2], v[3]},
		Accel: [3]float64{v[4], v[5], v[6]},
	}, nil
}
