// Package greeting builds a personalised opening message for the selected
// conversation's job.
package greeting

import (
	"log"
	"strings"
	"sync"

	"go-boss-assistant/internal/models"

	"github.com/tidwall/gjson"
)

// bizType of the history message that carries the job card.
const jobCardBizType = 21050003

// URL fragments of the site APIs the tracker listens to.
const (
	HistoryMsgPath  = "historyMsg"
	GetBossDataPath = "getBossData"
)

// ParseHistoryMsg extracts the job card from a historyMsg response.
func ParseHistoryMsg(body []byte) (models.JobSnapshot, bool) {
	if !gjson.ValidBytes(body) {
		return models.JobSnapshot{}, false
	}
	var card gjson.Result
	gjson.GetBytes(body, "zpData.messages").ForEach(func(_, m gjson.Result) bool {
		if m.Get("bizType").Int() == jobCardBizType && m.Get("body.jobDesc").IsObject() {
			card = m.Get("body.jobDesc")
			return false
		}
		return true
	})
	if !card.Exists() {
		return models.JobSnapshot{}, false
	}
	return models.JobSnapshot{
		Title:       card.Get("title").String(),
		Salary:      card.Get("salary").String(),
		City:        card.Get("city").String(),
		Education:   card.Get("education").String(),
		Experience:  card.Get("experience").String(),
		Company:     card.Get("company").String(),
		HRName:      card.Get("boss.name").String(),
		HRTitle:     card.Get("bossTitle").String(),
		Description: card.Get("content").String(),
	}, true
}

// ParseBossData extracts the job record from a getBossData response. Records
// without both ids cannot address the detail page and are rejected.
func ParseBossData(body []byte) (models.JobData, bool) {
	if !gjson.ValidBytes(body) {
		return models.JobData{}, false
	}
	zp := gjson.GetBytes(body, "zpData")
	if !zp.Exists() {
		return models.JobData{}, false
	}
	boss, job := zp.Get("data"), zp.Get("job")
	d := models.JobData{
		EncryptJobID:   boss.Get("encryptJobId").String(),
		SecurityID:     boss.Get("securityId").String(),
		EncryptBossID:  boss.Get("encryptBossId").String(),
		JobName:        job.Get("jobName").String(),
		SalaryDesc:     job.Get("salaryDesc").String(),
		LocationName:   job.Get("locationName").String(),
		DegreeName:     job.Get("degreeName").String(),
		ExperienceName: job.Get("experienceName").String(),
		BrandName:      job.Get("brandName").String(),
		BossName:       boss.Get("name").String(),
		BossTitle:      boss.Get("title").String(),
		CompanyName:    boss.Get("companyName").String(),
	}
	return d, d.Fetchable()
}

// Tracker remembers the latest job records seen for the open conversation.
// It is fed from network response callbacks and read by the generator.
type Tracker struct {
	mu          sync.Mutex
	snapshot    models.JobSnapshot
	data        models.JobData
	description string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// HandleResponse routes an API response body by URL. It reports whether the
// body updated the tracker.
func (t *Tracker) HandleResponse(url string, body []byte) bool {
	switch {
	case strings.Contains(url, HistoryMsgPath):
		snap, ok := ParseHistoryMsg(body)
		if ok {
			t.SetSnapshot(snap)
			log.Printf("📋 [greeting] Job card received: %s", snap.Title)
		}
		return ok
	case strings.Contains(url, GetBossDataPath):
		data, ok := ParseBossData(body)
		if ok {
			t.SetJobData(data)
			log.Printf("📋 [greeting] Job data received: %s", data.JobName)
		}
		return ok
	}
	return false
}

func (t *Tracker) SetSnapshot(s models.JobSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshot = s
}

// SetJobData switches the tracked job. A fetched description belongs to one
// job and is dropped when the job changes.
func (t *Tracker) SetJobData(d models.JobData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d.EncryptJobID != t.data.EncryptJobID {
		t.description = ""
	}
	t.data = d
}

// SetDescription stores the full description fetched for jobID. It is ignored
// if the conversation moved on meanwhile.
func (t *Tracker) SetDescription(jobID, desc string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if jobID != t.data.EncryptJobID {
		return
	}
	t.description = desc
}

// Current returns copies of everything tracked so far.
func (t *Tracker) Current() (models.JobData, models.JobSnapshot, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data, t.snapshot, t.description
}
