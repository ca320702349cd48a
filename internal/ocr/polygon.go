package ocr

import (
	"encoding/json"
	"fmt"
)

func marshalPoints(b Box) ([]byte, error) {
	pts := make([][2]float64, len(b))
	for i, p := range b {
		pts[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(pts)
}

func unmarshalPoints(data []byte, b *Box) error {
	var pts [][]float64
	if err := json.Unmarshal(data, &pts); err != nil {
		return fmt.Errorf("decoding polygon: %w", err)
	}
	box, err := boxFromPolygon(pts)
	if err != nil {
		return err
	}
	*b = box
	return nil
}

// boxFromPolygon converts a recognizer polygon into a Box
func boxFromPolygon(pts [][]float64) (Box, error) {
	var box Box
	if len(pts) != 4 {
		return box, fmt.Errorf("polygon must have 4 points, got %d", len(pts))
	}
	for i, p := range pts {
		if len(p) != 2 {
			return box, fmt.Errorf("point %d must have 2 coordinates, got %d", i, len(p))
		}
		box[i] = Point{X: p[0], Y: p[1]}
	}
	return box, nil
}
