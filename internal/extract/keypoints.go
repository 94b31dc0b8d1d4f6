package extract

import (
	"fmt"
	"strings"

	"paperscope/internal/models"
)

const maxReviewKeyPoints = 3

// KeyPoints derives reader-facing takeaways from the document and, when
// present, the peer review.
func KeyPoints(doc models.Document, review *models.PeerReview) []models.KeyPoint {
	points := make([]models.KeyPoint, 0, 6)

	if abstract := strings.TrimSpace(doc.Abstract); abstract != "" {
		points = append(points, models.KeyPoint{
			Point:      oneSentence(doc),
			Evidence:   truncateRunes(abstract, 300),
			Section:    "Abstract",
			Importance: "high",
		})
	}

	if eq := firstDisplayEquation(doc.Equations); eq != nil {
		points = append(points, models.KeyPoint{
			Point:      fmt.Sprintf("Formal core: %d display equations, the first appearing in '%s'", countDisplay(doc.Equations), eq.Section),
			Evidence:   truncateRunes(eq.LaTeX, 200),
			Section:    eq.Section,
			Importance: "medium",
		})
	}

	if review != nil {
		for i, s := range review.Strengths {
			if i >= maxReviewKeyPoints {
				break
			}
			points = append(points, models.KeyPoint{
				Point:      strings.TrimSpace(s),
				Section:    "Peer Review",
				Importance: "high",
			})
		}
	}

	return points
}

func firstDisplayEquation(eqs []models.Equation) *models.Equation {
	for i := range eqs {
		if !eqs[i].IsInline {
			return &eqs[i]
		}
	}
	return nil
}

func countDisplay(eqs []models.Equation) int {
	n := 0
	for _, eq := range eqs {
		if !eq.IsInline {
			n++
		}
	}
	return n
}
