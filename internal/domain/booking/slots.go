package booking

// IndexOfSlot returns the position of slot in available, or -1.
// Labels are compared exactly; the service owns their format.
func IndexOfSlot(available []string, slot string) int {
	for i, s := range available {
		if s == slot {
			return i
		}
	}
	return -1
}

// CloneSlots copies a slot list so callers never share the controller's backing array.
// A nil or empty input yields an empty, non-nil slice.
func CloneSlots(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
