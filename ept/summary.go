package ept

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// AttributeStats describes the distribution of one scalar attribute.
type AttributeStats struct {
	Name   string
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// Summary is a human oriented digest of a decoded node.
type Summary struct {
	NumPoints  int
	Attributes []AttributeStats
	// ClassCounts maps classification code to number of points.
	ClassCounts map[uint8]int
}

func describe(name string, data stats.Float64Data) (AttributeStats, error) {
	as := AttributeStats{Name: name}
	var err error
	if as.Min, err = data.Min(); err != nil {
		return as, errors.Wrapf(err, "min of %s", name)
	}
	if as.Max, err = data.Max(); err != nil {
		return as, errors.Wrapf(err, "max of %s", name)
	}
	if as.Mean, err = data.Mean(); err != nil {
		return as, errors.Wrapf(err, "mean of %s", name)
	}
	if as.Median, err = data.Median(); err != nil {
		return as, errors.Wrapf(err, "median of %s", name)
	}
	return as, nil
}

// Summarize computes statistics for the scalar attributes and channels of res. Empty
// nodes produce a summary with no attributes.
func Summarize(res *Result) (Summary, error) {
	s := Summary{NumPoints: res.NumPoints}
	if res.NumPoints == 0 {
		return s, nil
	}

	var series []struct {
		name string
		data stats.Float64Data
	}
	addSeries := func(name string, n int, at func(i int) float64) {
		data := make(stats.Float64Data, n)
		for i := range data {
			data[i] = at(i)
		}
		series = append(series, struct {
			name string
			data stats.Float64Data
		}{name, data})
	}

	if res.Intensity != nil {
		addSeries(DimIntensity, len(res.Intensity), func(i int) float64 { return float64(res.Intensity[i]) })
	}
	if res.Classification != nil {
		addSeries(DimClassification, len(res.Classification), func(i int) float64 { return float64(res.Classification[i]) })
		s.ClassCounts = make(map[uint8]int)
		for _, c := range res.Classification {
			s.ClassCounts[c]++
		}
	}
	if res.PointSourceID != nil {
		addSeries(DimPointSourceID, len(res.PointSourceID), func(i int) float64 { return float64(res.PointSourceID[i]) })
	}
	for _, ch := range res.Channels {
		addSeries(ch.Field.Name, ch.Len(), ch.Float64)
	}

	for _, ser := range series {
		as, err := describe(ser.name, ser.data)
		if err != nil {
			return Summary{}, err
		}
		s.Attributes = append(s.Attributes, as)
	}
	return s, nil
}

// String renders the attribute statistics and the classification histogram as tables.
func (s Summary) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%d points", s.NumPoints))
	t.AppendHeader(table.Row{"Attribute", "Min", "Max", "Mean", "Median"})
	for _, as := range s.Attributes {
		t.AppendRow(table.Row{
			as.Name,
			fmt.Sprintf("%g", as.Min),
			fmt.Sprintf("%g", as.Max),
			fmt.Sprintf("%.3f", as.Mean),
			fmt.Sprintf("%g", as.Median),
		})
	}
	out := t.Render()
	if len(s.ClassCounts) == 0 {
		return out
	}

	classes := make([]int, 0, len(s.ClassCounts))
	for c := range s.ClassCounts {
		classes = append(classes, int(c))
	}
	sort.Ints(classes)
	ct := table.NewWriter()
	ct.AppendHeader(table.Row{"Class", "Points"})
	for _, c := range classes {
		ct.AppendRow(table.Row{c, s.ClassCounts[uint8(c)]})
	}
	return out + "\n" + ct.Render()
}
