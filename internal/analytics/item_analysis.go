package analytics

import (
	"math"
	"sort"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// GroupFraction is the share of students placed in each of the upper and lower groups
const GroupFraction = 0.27

// ItemStatistics holds the difficulty and discrimination indices of one question
type ItemStatistics struct {
	Question            string  `json:"question"`
	Responses           int     `json:"responses"`
	GradeSum            float64 `json:"grade_sum"`
	DifficultyIndex     float64 `json:"difficulty_index"`
	UpperPassCount      int     `json:"upper_pass_count"`
	LowerPassCount      int     `json:"lower_pass_count"`
	DiscriminationIndex float64 `json:"discrimination_index"`
}

// StudentTotal is a student's grade summed across all questions
type StudentTotal struct {
	StudentID  string  `json:"student_id"`
	TotalGrade float64 `json:"total_grade"`
}

// ItemAnalysisReport is the result of DifficultyDiscrimination
type ItemAnalysisReport struct {
	Items        []ItemStatistics `json:"items"`
	StudentCount int              `json:"student_count"`
	GroupSize    int              `json:"group_size"`
	UpperGroup   []string         `json:"upper_group"`
	LowerGroup   []string         `json:"lower_group"`
	Filter       FilterStats      `json:"filter"`
}

// GroupSize returns ceil(0.27 * students)
func GroupSize(students int) int {
	return int(math.Ceil(float64(students) * GroupFraction))
}

// DifficultyDiscrimination computes per-question difficulty and discrimination indices.
//
// Difficulty is the mean grade of the question. Discrimination compares the
// upper and lower 27% of students ranked by total grade: the number of rows
// with a positive grade in each group, differenced and divided by the group
// size. When the group size exceeds half the students the groups overlap;
// that is kept as is. Questions are returned in ascending order.
func DifficultyDiscrimination(ds *models.Dataset) (*ItemAnalysisReport, error) {
	if missing := ds.MissingColumns(models.ColumnQuestion, models.ColumnGrade, models.ColumnStudentID); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	responses, stats := FilterGrades(ds.Records())

	difficulty := difficultyTable(responses)

	ranked := rankStudents(responses)
	groupSize := GroupSize(len(ranked))
	if groupSize < 1 {
		return nil, ErrInsufficientData
	}

	upper := ranked[:groupSize]
	lower := ranked[len(ranked)-groupSize:]
	discrimination := discriminationTable(responses, studentSet(upper), studentSet(lower), groupSize)

	// Inner join on question: rows absent from either table are dropped.
	items := make([]ItemStatistics, 0, len(difficulty))
	for _, item := range difficulty {
		disc, ok := discrimination[item.Question]
		if !ok {
			continue
		}
		item.UpperPassCount = disc.UpperPassCount
		item.LowerPassCount = disc.LowerPassCount
		item.DiscriminationIndex = disc.DiscriminationIndex
		items = append(items, item)
	}

	return &ItemAnalysisReport{
		Items:        items,
		StudentCount: len(ranked),
		GroupSize:    groupSize,
		UpperGroup:   studentIDs(upper),
		LowerGroup:   studentIDs(lower),
		Filter:       stats,
	}, nil
}

// difficultyTable returns one entry per question, sorted by question
func difficultyTable(responses []GradedResponse) []ItemStatistics {
	index := make(map[string]int)
	var items []ItemStatistics
	for _, r := range responses {
		i, ok := index[r.Question]
		if !ok {
			i = len(items)
			index[r.Question] = i
			items = append(items, ItemStatistics{Question: r.Question})
		}
		items[i].GradeSum += r.Grade
		items[i].Responses++
	}

	for i := range items {
		items[i].DifficultyIndex = items[i].GradeSum / float64(items[i].Responses)
	}
	sort.Slice(items, func(a, b int) bool { return items[a].Question < items[b].Question })
	return items
}

// rankStudents sums grades per student and orders them by total, highest first.
// Ties keep ascending student id order.
func rankStudents(responses []GradedResponse) []StudentTotal {
	index := make(map[string]int)
	var totals []StudentTotal
	for _, r := range responses {
		i, ok := index[r.StudentID]
		if !ok {
			i = len(totals)
			index[r.StudentID] = i
			totals = append(totals, StudentTotal{StudentID: r.StudentID})
		}
		totals[i].TotalGrade += r.Grade
	}

	sort.Slice(totals, func(a, b int) bool { return totals[a].StudentID < totals[b].StudentID })
	sort.SliceStable(totals, func(a, b int) bool { return totals[a].TotalGrade > totals[b].TotalGrade })
	return totals
}

// discriminationTable counts each student at most once per question, so the
// index stays within [-1, 1] even when a student has repeated rows.
func discriminationTable(responses []GradedResponse, upper, lower map[string]struct{}, groupSize int) map[string]ItemStatistics {
	upperPassed := make(map[string]map[string]struct{})
	lowerPassed := make(map[string]map[string]struct{})
	table := make(map[string]ItemStatistics)
	for _, r := range responses {
		if _, ok := table[r.Question]; !ok {
			table[r.Question] = ItemStatistics{}
			upperPassed[r.Question] = make(map[string]struct{})
			lowerPassed[r.Question] = make(map[string]struct{})
		}
		if r.Grade <= 0 {
			continue
		}
		if _, ok := upper[r.StudentID]; ok {
			upperPassed[r.Question][r.StudentID] = struct{}{}
		}
		if _, ok := lower[r.StudentID]; ok {
			lowerPassed[r.Question][r.StudentID] = struct{}{}
		}
	}

	for q, item := range table {
		item.UpperPassCount = len(upperPassed[q])
		item.LowerPassCount = len(lowerPassed[q])
		item.DiscriminationIndex = float64(item.UpperPassCount-item.LowerPassCount) / float64(groupSize)
		table[q] = item
	}
	return table
}

func studentSet(totals []StudentTotal) map[string]struct{} {
	set := make(map[string]struct{}, len(totals))
	for _, t := range totals {
		set[t.StudentID] = struct{}{}
	}
	return set
}

func studentIDs(totals []StudentTotal) []string {
	ids := make([]string, len(totals))
	for i, t := range totals {
		ids[i] = t.StudentID
	}
	return ids
}
