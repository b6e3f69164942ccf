// Package consensus merges a SELF and an ASSESSOR assessment of the same employee into a
// per-competency consensus view. Everything here is a pure function of its arguments.
package consensus

import (
	"sort"

	"competency-assessment/internal/models"
	"competency-assessment/internal/rating"
)

// Pair is one SELF and one ASSESSOR assessment of the same employee, both eligible
type Pair struct {
	Self     models.Assessment
	Assessor models.Assessment
}

// Eligible reports whether an assessment may feed a consensus view
func Eligible(a models.Assessment) bool {
	return a.Status.IsTerminal()
}

// SelectPairs groups assessments by employee and returns one pair for every employee that
// has both an eligible SELF and an eligible ASSESSOR assessment, ordered by employee id.
// When an employee has several eligible assessments of a type, the latest completed one is
// used (then latest created, then highest id).
func SelectPairs(assessments []models.Assessment) []Pair {
	selfByEmployee := make(map[uint]models.Assessment)
	assessorByEmployee := make(map[uint]models.Assessment)

	for _, a := range assessments {
		if !Eligible(a) {
			continue
		}

		var bucket map[uint]models.Assessment
		switch a.Type {
		case models.AssessmentTypeSelf:
			bucket = selfByEmployee
		case models.AssessmentTypeAssessor:
			bucket = assessorByEmployee
		default:
			continue
		}

		if current, ok := bucket[a.EmployeeID]; !ok || moreRecent(a, current) {
			bucket[a.EmployeeID] = a
		}
	}

	pairs := make([]Pair, 0, len(selfByEmployee))
	for employeeID, self := range selfByEmployee {
		assessor, ok := assessorByEmployee[employeeID]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Self: self, Assessor: assessor})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Self.EmployeeID < pairs[j].Self.EmployeeID
	})

	return pairs
}

func moreRecent(a, b models.Assessment) bool {
	switch {
	case a.CompletedAt != nil && b.CompletedAt == nil:
		return true
	case a.CompletedAt == nil && b.CompletedAt != nil:
		return false
	case a.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt):
		return a.CompletedAt.After(*b.CompletedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// BuildAll builds the consensus views of every eligible pair found in assessments
func BuildAll(assessments []models.Assessment, lookups Lookups) []models.ConsensusView {
	pairs := SelectPairs(assessments)
	views := make([]models.ConsensusView, 0, len(pairs))
	for _, p := range pairs {
		views = append(views, Build(p.Self, p.Assessor, lookups))
	}
	return views
}

// Build merges the ratings of self and assessor. Callers are expected to pass a pair
// returned by SelectPairs; Build itself does not check eligibility.
//
// Records follow the self ratings in input order, then the assessor-only ratings in input
// order. A competency listed twice on one side only counts once (first occurrence).
func Build(self, assessor models.Assessment, lookups Lookups) models.ConsensusView {
	assessorByCompetency := make(map[uint]models.CompetencyRating, len(assessor.Ratings))
	for _, r := range assessor.Ratings {
		if _, dup := assessorByCompetency[r.CompetencyID]; !dup {
			assessorByCompetency[r.CompetencyID] = r
		}
	}

	seen := make(map[uint]bool, len(self.Ratings)+len(assessor.Ratings))
	merged := make([]models.ConsensusCompetencyRating, 0, len(self.Ratings)+len(assessor.Ratings))

	for _, r := range self.Ratings {
		if seen[r.CompetencyID] {
			continue
		}
		seen[r.CompetencyID] = true

		rec := models.ConsensusCompetencyRating{
			CompetencyID:    r.CompetencyID,
			CompetencyName:  lookups.CompetencyName(r.CompetencyID),
			Rating:          r.Rating,
			Comments:        r.Comment,
			ConsensusRating: rating.Round1(float64(r.Rating)),
		}
		if match, ok := assessorByCompetency[r.CompetencyID]; ok {
			value := match.Rating
			rec.AssessorRating = &value
			rec.AssessorComments = match.Comment
			rec.ConsensusRating = rating.Round1(float64(r.Rating+match.Rating) / 2)
		}
		merged = append(merged, rec)
	}

	for _, r := range assessor.Ratings {
		if seen[r.CompetencyID] {
			continue
		}
		seen[r.CompetencyID] = true

		value := r.Rating
		merged = append(merged, models.ConsensusCompetencyRating{
			CompetencyID:     r.CompetencyID,
			CompetencyName:   lookups.CompetencyName(r.CompetencyID),
			Rating:           rating.Unrated,
			AssessorRating:   &value,
			AssessorComments: r.Comment,
			ConsensusRating:  float64(value),
		})
	}

	employeeValues := make([]float64, 0, len(merged))
	assessorValues := make([]float64, 0, len(merged))
	consensusValues := make([]float64, 0, len(merged))
	for _, rec := range merged {
		employeeValues = append(employeeValues, float64(rec.Rating))
		if rec.AssessorRating != nil {
			assessorValues = append(assessorValues, float64(*rec.AssessorRating))
		}
		consensusValues = append(consensusValues, rec.ConsensusRating)
	}

	department, jobTitle := lookups.Placement(self.EmployeeID)
	view := models.ConsensusView{
		EmployeeID:           self.EmployeeID,
		EmployeeName:         lookups.UserName(self.EmployeeID, UnknownEmployee),
		AssessorID:           assessor.AssessorID,
		AssessorName:         UnassignedAssessor,
		DepartmentName:       department,
		JobTitle:             jobTitle,
		SelfAssessmentID:     self.ID,
		AssessorAssessmentID: assessor.ID,
		CompetencyRatings:    merged,
		EmployeeOverall:      rating.Mean(employeeValues, rating.IncludeAll),
		AssessorOverall:      rating.Mean(assessorValues, rating.IncludeAll),
		ConsensusOverall:     rating.Mean(consensusValues, rating.IncludeAll),
	}
	if u, ok := lookups.Users[self.EmployeeID]; ok {
		view.EmployeeEmail = u.Email
	}
	if assessor.AssessorID != nil {
		view.AssessorName = lookups.UserName(*assessor.AssessorID, UnassignedAssessor)
	}

	return view
}
