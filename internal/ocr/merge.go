package ocr

import (
	"math"
	"sort"
	"strings"
)

const (
	// thresholdRatio scales the mean detection height into the row threshold
	thresholdRatio = 0.6
	// minThreshold is the floor applied to the automatic threshold
	minThreshold = 10.0
	// fallbackThreshold is used when no detection has a positive height
	fallbackThreshold = 15.0
)

// RowThreshold computes the vertical distance under which two detections share a row
func RowThreshold(detections []Detection) float64 {
	var sum float64
	var n int
	for _, d := range detections {
		if h := d.Box.Height(); h > 0 {
			sum += h
			n++
		}
	}
	if n == 0 {
		return fallbackThreshold
	}
	return math.Max(sum/float64(n)*thresholdRatio, minThreshold)
}

// MergeLines groups detections into lines ordered top to bottom, left to right
// within a line. The input slice is not modified.
func MergeLines(detections []Detection) []Line {
	return MergeLinesWithThreshold(detections, RowThreshold(detections))
}

// MergeLinesWithThreshold is MergeLines with a caller-supplied row threshold
func MergeLinesWithThreshold(detections []Detection, threshold float64) []Line {
	if len(detections) == 0 {
		return []Line{}
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.CenterY() < sorted[j].Box.CenterY()
	})

	lines := make([]Line, 0, len(sorted))
	group := []Detection{sorted[0]}
	for _, d := range sorted[1:] {
		// Anchored to the first member so a slanted row cannot drift into the next one
		if math.Abs(d.Box.CenterY()-group[0].Box.CenterY()) <= threshold {
			group = append(group, d)
			continue
		}
		lines = append(lines, mergeGroup(group))
		group = []Detection{d}
	}
	lines = append(lines, mergeGroup(group))

	return lines
}

// mergeGroup joins one row of detections into a single line
func mergeGroup(group []Detection) Line {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Box.CenterX() < group[j].Box.CenterX()
	})

	texts := make([]string, len(group))
	var confidence float64
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, d := range group {
		texts[i] = d.Text
		confidence += d.Confidence
		for _, p := range d.Box {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	return Line{
		Text:       strings.Join(texts, " "),
		Confidence: confidence / float64(len(group)),
		Box: Box{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
		},
	}
}
