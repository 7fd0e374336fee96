package tally

// Range is a half open range [Start, Stop) of cast ballot positions.
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of ballots in the range.
func (r Range) Len() int {
	return r.Stop - r.Start
}

// Partition splits total ballots into at most workers contiguous ranges.
// Every range gets total/workers ballots and the first total%workers ranges
// one more. Empty ranges are dropped.
func Partition(total, workers int) []Range {
	if total <= 0 || workers <= 0 {
		return nil
	}
	q, r := total/workers, total%workers
	ranges := make([]Range, 0, workers)
	for i := 0; i < workers; i++ {
		rg := Range{
			Start: q*i + min(i, r),
			Stop:  q*(i+1) + min(i+1, r),
		}
		if rg.Start >= rg.Stop {
			break
		}
		ranges = append(ranges, rg)
	}
	return ranges
}
