// Package batch splits container number lists into bounded query batches.
package batch

// Plan partitions numbers into contiguous batches of at most maxSize entries,
// preserving input order. The final batch may be short; no batch is empty.
// A non-positive maxSize yields a single batch with every number. Empty input
// yields nil.
func Plan(numbers []string, maxSize int) [][]string {
	if len(numbers) == 0 {
		return nil
	}
	if maxSize <= 0 || maxSize >= len(numbers) {
		return [][]string{numbers}
	}
	batches := make([][]string, 0, (len(numbers)+maxSize-1)/maxSize)
	for start := 0; start < len(numbers); start += maxSize {
		end := start + maxSize
		if end > len(numbers) {
			end = len(numbers)
		}
		batches = append(batches, numbers[start:end])
	}
	return batches
}
