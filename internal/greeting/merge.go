package greeting

import "go-boss-assistant/internal/models"

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Merge assembles the job record field by field, preferring the rich
// getBossData record over the history card, and the fetched description over
// the card's truncated one.
func Merge(data models.JobData, snap models.JobSnapshot, fullDesc string) models.JobInfo {
	return models.JobInfo{
		JobName:     firstNonEmpty(data.JobName, snap.Title),
		Salary:      firstNonEmpty(data.SalaryDesc, snap.Salary),
		City:        firstNonEmpty(data.LocationName, snap.City),
		Company:     firstNonEmpty(data.CompanyName, snap.Company),
		HRName:      firstNonEmpty(data.BossName, snap.HRName),
		HRTitle:     firstNonEmpty(data.BossTitle, snap.HRTitle),
		Description: firstNonEmpty(fullDesc, snap.Description),
	}
}
