package models

// JobSnapshot is the light job record carried in the chat history response.
// Its description is truncated by the site.
type JobSnapshot struct {
	Title       string `json:"title"`
	Salary      string `json:"salary"`
	City        string `json:"city"`
	Education   string `json:"education"`
	Experience  string `json:"experience"`
	Company     string `json:"company"`
	HRName      string `json:"hrName"`
	HRTitle     string `json:"hrTitle"`
	Description string `json:"description"`
}

// JobData is the richer record of the selected conversation. EncryptJobID and
// SecurityID together address the job detail page.
type JobData struct {
	EncryptJobID   string `json:"encryptJobId"`
	SecurityID     string `json:"securityId"`
	EncryptBossID  string `json:"encryptBossId"`
	JobName        string `json:"jobName"`
	SalaryDesc     string `json:"salaryDesc"`
	LocationName   string `json:"locationName"`
	DegreeName     string `json:"degreeName"`
	ExperienceName string `json:"experienceName"`
	BrandName      string `json:"brandName"`
	BossName       string `json:"bossName"`
	BossTitle      string `json:"bossTitle"`
	CompanyName    string `json:"companyName"`
}

// Fetchable reports whether the detail page can be opened for this job.
func (d JobData) Fetchable() bool {
	return d.EncryptJobID != "" && d.SecurityID != ""
}

// JobInfo is the merged job record used to build the greeting prompt.
type JobInfo struct {
	JobName     string `json:"jobName"`
	Salary      string `json:"salary"`
	City        string `json:"city"`
	Company     string `json:"company"`
	HRName      string `json:"hrName"`
	HRTitle     string `json:"hrTitle"`
	Description string `json:"description"`
}
