package assistant

import (
	"context"
	"fmt"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/models"
)

// Request kinds accepted by Dispatch.
const (
	KindChatReply      = "chat_reply"
	KindGreeting       = "greeting"
	KindTestConnection = "test_connection"
	KindFetchJobDetail = "fetch_job_detail"
)

// Request is the message sent across the boundary between the page side and
// the worker side.
type Request struct {
	Kind string `json:"type"`

	Dialogue string       `json:"dialogue,omitempty"`
	Messages []ai.Message `json:"messages,omitempty"`

	Job *models.JobInfo `json:"jobInfo,omitempty"`

	Settings *models.ModelSettings `json:"settings,omitempty"`

	EncryptJobID string `json:"encryptJobId,omitempty"`
	SecurityID   string `json:"securityId,omitempty"`
}

// Response carries either a result or a flattened error string.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	CanAnswer bool   `json:"can_answer,omitempty"`
	Reply     string `json:"reply,omitempty"`

	Greeting       string `json:"greeting,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
}

func failed(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Dispatch routes one request. Errors never escape as values; callers only
// see OK and a message.
func (s *Service) Dispatch(ctx context.Context, req Request) Response {
	switch req.Kind {
	case KindChatReply:
		d, err := s.ChatReply(ctx, ChatReplyRequest{Dialogue: req.Dialogue, Messages: req.Messages})
		if err != nil {
			return failed(err)
		}
		return Response{OK: true, CanAnswer: d.CanAnswer, Reply: d.Reply}

	case KindGreeting:
		if req.Job == nil {
			return failed(fmt.Errorf("jobInfo is required"))
		}
		text, err := s.Greeting(ctx, *req.Job)
		if err != nil {
			return failed(err)
		}
		return Response{OK: true, Greeting: text}

	case KindTestConnection:
		if req.Settings == nil {
			return failed(ai.ErrIncompleteSettings)
		}
		if err := s.TestConnection(ctx, *req.Settings); err != nil {
			return failed(err)
		}
		return Response{OK: true}

	case KindFetchJobDetail:
		desc, err := s.FetchJobDetail(ctx, req.EncryptJobID, req.SecurityID)
		if err != nil {
			return failed(err)
		}
		return Response{OK: true, JobDescription: desc}
	}
	return failed(fmt.Errorf("unknown request type %q", req.Kind))
}
