package ocr

import "math"

// Point is a pixel coordinate on the receipt image
type Point struct {
	X float64
	Y float64
}

// Box is a quadrilateral in recognizer order: top-left, top-right, bottom-right, bottom-left
type Box [4]Point

// Height returns the vertical extent between the first and third corner
func (b Box) Height() float64 {
	return math.Abs(b[2].Y - b[0].Y)
}

// CenterY returns the vertical center of the box
func (b Box) CenterY() float64 {
	return (b[0].Y + b[2].Y) / 2
}

// CenterX returns the horizontal center of the box
func (b Box) CenterX() float64 {
	return (b[0].X + b[2].X) / 2
}

// MarshalJSON encodes the box as [[x,y],...] the way recognizers emit polygons
func (b Box) MarshalJSON() ([]byte, error) {
	return marshalPoints(b)
}

// UnmarshalJSON decodes a [[x,y],...] polygon with exactly four points
func (b *Box) UnmarshalJSON(data []byte) error {
	return unmarshalPoints(data, b)
}

// Detection is one text fragment as emitted by the recognizer
type Detection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Line is one or more detections occupying the same visual row
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Texts returns the text of each line in order
func Texts(lines []Line) []string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return texts
}
