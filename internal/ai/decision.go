package ai

import (
	"strings"

	"go-boss-assistant/internal/models"

	"github.com/tidwall/gjson"
)

// ParseDecision reads the {"can_answer", "reply"} object out of model output.
// Output that is not an object is retried on the slice between the first "{"
// and the last "}". Anything still unreadable means the model cannot answer,
// and so does can_answer with a blank reply.
func ParseDecision(text string) (models.Decision, bool) {
	obj, ok := extractObject(strings.TrimSpace(text))
	if !ok {
		return models.Decision{}, false
	}

	if !obj.Get("can_answer").Bool() {
		return models.Decision{}, true
	}
	reply := strings.TrimSpace(obj.Get("reply").String())
	if reply == "" {
		return models.Decision{}, true
	}
	return models.Decision{CanAnswer: true, Reply: reply}, true
}

func extractObject(t string) (gjson.Result, bool) {
	if t == "" {
		return gjson.Result{}, false
	}
	if gjson.Valid(t) {
		if r := gjson.Parse(t); r.IsObject() {
			return r, true
		}
	}

	first := strings.Index(t, "{")
	last := strings.LastIndex(t, "}")
	if first == -1 || last <= first {
		return gjson.Result{}, false
	}
	sliced := t[first : last+1]
	if !gjson.Valid(sliced) {
		return gjson.Result{}, false
	}
	r := gjson.Parse(sliced)
	return r, r.IsObject()
}
