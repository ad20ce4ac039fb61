package obs

import (
	"fmt"
	"strings"

	"github.com/oralet86/au-notlar/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ExamEntry is one named grade component with its weight and the date it
// was recorded.
type ExamEntry struct {
	Name       string
	Percentage string
	Date       string
}

type LectureResult struct {
	Name  string
	Exams []ExamEntry
}

// ErrRowMismatch means the results table's primary and detail row counts
// do not line up and extraction cannot be trusted.
var ErrRowMismatch = fmt.Errorf("results table rows are misaligned")

// Surveyed lectures carry no itemized exams; a single full-weight entry
// under this name stands in for the pass/fail survey grade.
const letterGradeName = "Letter Grade"

// Row markers within the results table. Lectures graded through a survey
// get no detail row, so detail rows align with the non-surveyed primary
// rows shifted by the number of surveyed rows seen so far. This alignment
// is an observed property of the portal's grid markup, not something the
// portal documents.
const (
	selectorPrimaryRow = "tr.lecture-row"
	selectorDetailRow  = "tr.detail-row"
	selectorExamRow    = "table.exam-grid tr"
	classSurveyed      = "surveyed"
)

func cellText(sel *goquery.Selection) string {
	b := strings.Builder{}
	for _, node := range sel.Nodes {
		b.WriteString(htmlutil.GetText(node))
	}
	return htmlutil.CleanText(b.String())
}

func extractResults(doc *goquery.Document) ([]LectureResult, error) {
	table := doc.Find(selectorResultsTable)
	primary := table.Find(selectorPrimaryRow)
	detail := table.Find(selectorDetailRow)

	surveyedTotal := 0
	primary.Each(func(_ int, row *goquery.Selection) {
		if row.HasClass(classSurveyed) {
			surveyedTotal++
		}
	})

	if primary.Length()-surveyedTotal != detail.Length() {
		return nil, fmt.Errorf(
			"%w: %d primary, %d surveyed, %d detail",
			ErrRowMismatch, primary.Length(), surveyedTotal, detail.Length(),
		)
	}

	var results []LectureResult
	surveyedSeen := 0
	primary.Each(func(i int, row *goquery.Selection) {
		name := cellText(row.Find("td").First())

		if row.HasClass(classSurveyed) {
			date := cellText(row.Find("td").Last())
			results = append(results, LectureResult{
				Name: name,
				Exams: []ExamEntry{
					{Name: letterGradeName, Percentage: "100%", Date: date},
				},
			})
			surveyedSeen++
			return
		}

		var exams []ExamEntry
		detail.Eq(i - surveyedSeen).Find(selectorExamRow).Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() < 3 {
				return
			}
			exams = append(exams, ExamEntry{
				Name:       cellText(cells.Eq(0)),
				Percentage: cellText(cells.Eq(1)),
				Date:       cellText(cells.Eq(2)),
			})
		})
		results = append(results, LectureResult{Name: name, Exams: exams})
	})

	return results, nil
}
