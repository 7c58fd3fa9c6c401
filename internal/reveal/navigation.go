package reveal

// Navigation directions.
const (
	Backward = -1
	None     = 0
	Forward  = 1
)

// NavigationDirection maps a keyboard key to a slide step.
func NavigationDirection(key string) int {
	switch key {
	case "ArrowUp", "ArrowLeft":
		return Backward
	case "ArrowDown", "ArrowRight", " ", "Spacebar":
		return Forward
	default:
		return None
	}
}

// ResolveCurrentIndex returns the last slide whose start offset is at or
// above scrollY+1. Offsets must be ascending; empty input gives 0.
func ResolveCurrentIndex(scrollY float64, offsets []float64) int {
	ref := scrollY + 1
	current := 0
	for i, off := range offsets {
		if off > ref {
			break
		}
		current = i
	}
	return current
}

// NextIndex steps from current in dir, clamped to [0, count-1].
func NextIndex(current, dir, count int) int {
	if count <= 0 {
		return 0
	}
	next := current + dir
	if next < 0 {
		return 0
	}
	if next > count-1 {
		return count - 1
	}
	return next
}
