package greeting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyBody = `{
  "code": 0,
  "zpData": {
    "messages": [
      {"bizType": 1, "body": {"text": "hello"}},
      {"bizType": 21050003, "body": {"jobDesc": {
        "title": "Go Engineer",
        "salary": "25-35K",
        "city": "Shanghai",
        "education": "Bachelor",
        "experience": "3-5 years",
        "company": "Acme",
        "boss": {"name": "Wang"},
        "bossTitle": "HR Manager",
        "content": "Go, gRPC, Kubern..."
      }}}
    ]
  }
}`

const bossDataBody = `{
  "zpData": {
    "data": {
      "encryptJobId": "job-1",
      "securityId": "sec-1",
      "encryptBossId": "boss-1",
      "name": "Wang Wei",
      "title": "Tech Lead",
      "companyName": "Acme Inc"
    },
    "job": {
      "jobName": "Senior Go Engineer",
      "salaryDesc": "",
      "locationName": "Shanghai Pudong",
      "degreeName": "Bachelor",
      "experienceName": "3-5 years",
      "brandName": "Acme"
    }
  }
}`

func TestParseHistoryMsg(t *testing.T) {
	snap, ok := ParseHistoryMsg([]byte(historyBody))
	require.True(t, ok)
	assert.Equal(t, models.JobSnapshot{
		Title:       "Go Engineer",
		Salary:      "25-35K",
		City:        "Shanghai",
		Education:   "Bachelor",
		Experience:  "3-5 years",
		Company:     "Acme",
		HRName:      "Wang",
		HRTitle:     "HR Manager",
		Description: "Go, gRPC, Kubern...",
	}, snap)

	_, ok = ParseHistoryMsg([]byte(`{"zpData":{"messages":[{"bizType":1}]}}`))
	assert.False(t, ok)
	_, ok = ParseHistoryMsg([]byte(`not json`))
	assert.False(t, ok)
}

func TestParseBossData(t *testing.T) {
	d, ok := ParseBossData([]byte(bossDataBody))
	require.True(t, ok)
	assert.Equal(t, "job-1", d.EncryptJobID)
	assert.Equal(t, "sec-1", d.SecurityID)
	assert.Equal(t, "Wang Wei", d.BossName)
	assert.Equal(t, "Senior Go Engineer", d.JobName)

	_, ok = ParseBossData([]byte(`{"zpData":{"data":{"encryptJobId":"x"}}}`))
	assert.False(t, ok, "securityId is required")
}

func TestMerge_SalaryFallsBackToHistoryCard(t *testing.T) {
	d, _ := ParseBossData([]byte(bossDataBody))
	snap, _ := ParseHistoryMsg([]byte(historyBody))

	job := Merge(d, snap, "")
	assert.Equal(t, models.JobInfo{
		JobName:     "Senior Go Engineer",
		Salary:      "25-35K",
		City:        "Shanghai Pudong",
		Company:     "Acme Inc",
		HRName:      "Wang Wei",
		HRTitle:     "Tech Lead",
		Description: "Go, gRPC, Kubern...",
	}, job)

	full := Merge(d, snap, "Full description")
	assert.Equal(t, "Full description", full.Description)

	onlyCard := Merge(models.JobData{}, snap, "")
	assert.Equal(t, "Go Engineer", onlyCard.JobName)
	assert.Equal(t, "HR Manager", onlyCard.HRTitle)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.HandleResponse("https://www.zhipin.com/wapi/zpchat/geek/historyMsg?bossId=1", []byte(historyBody)))
	assert.True(t, tr.HandleResponse("https://www.zhipin.com/wapi/zpchat/geek/getBossData?bossId=1", []byte(bossDataBody)))
	assert.False(t, tr.HandleResponse("https://www.zhipin.com/wapi/other", []byte(bossDataBody)))

	tr.SetDescription("job-1", "full")
	_, _, desc := tr.Current()
	assert.Equal(t, "full", desc)

	tr.SetDescription("stale-job", "other")
	_, _, desc = tr.Current()
	assert.Equal(t, "full", desc)

	tr.SetJobData(models.JobData{EncryptJobID: "job-2", SecurityID: "sec-2"})
	_, _, desc = tr.Current()
	assert.Empty(t, desc, "description is dropped when the job changes")
}

type fakeGateway struct {
	mu       sync.Mutex
	complete bool
	fetchErr error
	fetched  []string
	jobs     []models.JobInfo
	greeting string
	greetErr error
	block    chan struct{}
}

func (f *fakeGateway) SettingsComplete(context.Context) bool { return f.complete }

func (f *fakeGateway) Greeting(_ context.Context, job models.JobInfo) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return f.greeting, f.greetErr
}

func (f *fakeGateway) FetchJobDetail(_ context.Context, id, sec string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id+"/"+sec)
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return "Full JD for " + id, nil
}

type fakeFiller struct {
	written []string
}

func (f *fakeFiller) Fill(_ context.Context, text string) error {
	f.written = append(f.written, text)
	return nil
}

func trackedJob() *Tracker {
	tr := NewTracker()
	tr.HandleResponse(HistoryMsgPath, []byte(historyBody))
	tr.HandleResponse(GetBossDataPath, []byte(bossDataBody))
	return tr
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{complete: true, greeting: "Hi Mr. Wang\nI have 5 years of Go."}
	filler := &fakeFiller{}
	g := NewGenerator(trackedJob(), gw, filler)

	text, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hi Mr. Wang\nI have 5 years of Go.", text)
	assert.Equal(t, []string{text}, filler.written)
	assert.Equal(t, []string{"job-1/sec-1"}, gw.fetched)
	require.Len(t, gw.jobs, 1)
	assert.Equal(t, "Full JD for job-1", gw.jobs[0].Description)
	assert.Equal(t, "25-35K", gw.jobs[0].Salary)

	// the description is kept, so a second run does not fetch again
	_, err = g.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, gw.fetched, 1)
}

func TestGenerate_FetchFailureUsesPartialData(t *testing.T) {
	gw := &fakeGateway{complete: true, greeting: "hi", fetchErr: errors.New("timeout")}
	g := NewGenerator(trackedJob(), gw, &fakeFiller{})

	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, gw.jobs, 1)
	assert.Equal(t, "Go, gRPC, Kubern...", gw.jobs[0].Description)
}

func TestGenerate_Preconditions(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(NewTracker(), &fakeGateway{complete: true}, nil).Generate(ctx)
	assert.ErrorIs(t, err, ErrNoConversation)

	_, err = NewGenerator(trackedJob(), &fakeGateway{}, nil).Generate(ctx)
	assert.ErrorIs(t, err, ai.ErrIncompleteSettings)

	_, err = NewGenerator(trackedJob(), &fakeGateway{complete: true, greetErr: ai.ErrEmptyContent}, nil).Generate(ctx)
	assert.ErrorIs(t, err, ai.ErrEmptyContent)
}

func TestGenerate_SingleFlight(t *testing.T) {
	gw := &fakeGateway{complete: true, greeting: "hi", block: make(chan struct{})}
	g := NewGenerator(trackedJob(), gw, &fakeFiller{})

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return g.inFlight.Load() }, time.Second, 5*time.Millisecond)
	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, ErrInProgress)

	close(gw.block)
	assert.NoError(t, <-done)

	_, err = g.Generate(context.Background())
	assert.NoError(t, err)
}
