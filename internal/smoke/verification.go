package smoke

import (
	"fmt"
	"math"
)

// verifySummary checks the summary against the full record list.
func verifySummary(sum Summary, all []Employee) error {
	total := 0
	for _, n := range sum.QuadrantDistribution {
		total += n
	}
	if total != sum.TotalEmployees {
		return fmt.Errorf("%w: distribution sums to %d, total_employees is %d", ErrInconsistent, total, sum.TotalEmployees)
	}
	if len(all) != sum.TotalEmployees {
		return fmt.Errorf("%w: /employees returned %d records, total_employees is %d", ErrInconsistent, len(all), sum.TotalEmployees)
	}

	counts := countByQuadrant(all)
	for label, n := range counts {
		if sum.QuadrantDistribution[label] != n {
			return fmt.Errorf("%w: %s has %d records, distribution says %d", ErrInconsistent, label, n, sum.QuadrantDistribution[label])
		}
	}
	for label, n := range sum.QuadrantDistribution {
		if n != counts[label] {
			return fmt.Errorf("%w: distribution says %s=%d, records show %d", ErrInconsistent, label, n, counts[label])
		}
	}

	if avg := averageScore(all); math.Abs(avg-sum.AverageSentiment) > averageTolerance {
		return fmt.Errorf("%w: average_sentiment %.6f, records average %.6f", ErrInconsistent, sum.AverageSentiment, avg)
	}
	return nil
}

// verifyFilter checks one GET /employees?quadrant= response against the
// full list: only matching records, the expected count, snapshot order.
func verifyFilter(label string, want int, got, all []Employee) error {
	if len(got) != want {
		return fmt.Errorf("%w: filter %s returned %d records, want %d", ErrInconsistent, label, len(got), want)
	}
	j := 0
	for _, rec := range all {
		if j < len(got) && sameRecord(rec, got[j]) {
			j++
		}
	}
	for _, rec := range got {
		if rec.Quadrant != label {
			return fmt.Errorf("%w: filter %s returned a %s record", ErrInconsistent, label, rec.Quadrant)
		}
	}
	if j != len(got) {
		return fmt.Errorf("%w: filter %s is not in snapshot order", ErrInconsistent, label)
	}
	return nil
}

func sameRecord(a, b Employee) bool {
	return a.EmployeeID == b.EmployeeID && a.EmployeeName == b.EmployeeName &&
		a.Role == b.Role && a.Content == b.Content && a.Quadrant == b.Quadrant
}

func countByQuadrant(all []Employee) map[string]int {
	counts := make(map[string]int)
	for _, rec := range all {
		counts[rec.Quadrant]++
	}
	return counts
}

func averageScore(all []Employee) float64 {
	var sum float64
	var n int
	for _, rec := range all {
		if rec.SentimentScore != nil {
			sum += *rec.SentimentScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
