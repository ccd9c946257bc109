package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/replay"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteProfileCSV writes one row per step: step index, time and the path
// sample of every axis.
func WriteProfileCSV(w io.Writer, p *profile.Profile) error {
	cw := csv.NewWriter(w)
	header := []string{"step", "time_s"}
	for _, a := range profile.Axes {
		header = append(header, a.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	ts := p.Times()
	row := make([]string, len(header))
	for i, t := range ts {
		row[0] = strconv.Itoa(i + 1)
		row[1] = formatFloat(t)
		for k, a := range profile.Axes {
			row[2+k] = formatFloat(p.Path(a)[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReplayCSV writes one row per cycle with the command, measured
// position and reference of every joint. Reference cells are empty when the
// joint had none that cycle.
func WriteReplayCSV(w io.Writer, r *replay.Result) error {
	cw := csv.NewWriter(w)
	joints := r.Config.Joints
	header := []string{"cycle", "time_s", "period_s", "valid"}
	for j := 0; j < joints; j++ {
		header = append(header,
			fmt.Sprintf("cmd_%d", j),
			fmt.Sprintf("measured_%d", j),
			fmt.Sprintf("reference_%d", j),
			fmt.Sprintf("velocity_%d", j),
		)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := range r.Trace {
		c := &r.Trace[i]
		row[0] = strconv.Itoa(c.Index)
		row[1] = formatFloat(c.Time)
		row[2] = formatFloat(c.Period.Seconds())
		row[3] = strconv.FormatBool(c.Valid)
		for j := 0; j < joints; j++ {
			base := 4 + 4*j
			row[base] = formatFloat(c.Command[j])
			row[base+1] = formatFloat(c.Measured[j])
			row[base+2], row[base+3] = "", ""
		}
		for k, j := range c.Output.Joints {
			base := 4 + 4*j
			row[base+2] = formatFloat(c.Output.Positions[k])
			row[base+3] = formatFloat(c.Output.Velocities[k])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
