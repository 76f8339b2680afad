package analytics

import "time"

// Point is one history record reshaped for charting. A nil value means the
// parameter was absent from the block.
type Point struct {
	Timestamp time.Time           `json:"timestamp"`
	Values    map[string]*float64 `json:"values"`
}

// Downsample reduces the points to at most target entries by averaging fixed
// blocks. Each output point carries the timestamp of the middle element of
// its block and the per-parameter mean of the non-nil values; a block with no
// values for a parameter stays nil. Fewer points than the target pass through
// unchanged.
func Downsample(points []Point, target int, params []string) []Point {
	if target <= 0 || len(points) <= target {
		return points
	}

	blockSize := (len(points) + target - 1) / target
	result := make([]Point, 0, (len(points)+blockSize-1)/blockSize)

	for start := 0; start < len(points); start += blockSize {
		end := start + blockSize
		if end > len(points) {
			end = len(points)
		}
		block := points[start:end]
		middle := block[len(block)/2]

		values := make(map[string]*float64, len(params))
		for _, param := range params {
			var sum float64
			var count int
			for _, p := range block {
				if v, ok := p.Values[param]; ok && v != nil {
					sum += *v
					count++
				}
			}
			if count == 0 {
				values[param] = nil
				continue
			}
			mean := sum / float64(count)
			values[param] = &mean
		}
		result = append(result, Point{Timestamp: middle.Timestamp, Values: values})
	}
	return result
}
