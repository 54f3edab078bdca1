package models

import "strings"

// ProfileSchemaVersion is written into every saved profile.
const ProfileSchemaVersion = 1

// ModelSettings holds the OpenAI-compatible endpoint credentials.
type ModelSettings struct {
	APIBase string `json:"api_base" yaml:"api_base"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
}

// Complete reports whether every field needed for a model call is present.
func (s ModelSettings) Complete() bool {
	return strings.TrimSpace(s.APIBase) != "" &&
		strings.TrimSpace(s.APIKey) != "" &&
		strings.TrimSpace(s.Model) != ""
}

// CandidateProfile is the static information the assistant may answer from.
type CandidateProfile struct {
	SchemaVersion int               `json:"schema_version" yaml:"schema_version"`
	City          string            `json:"city" yaml:"city"`
	Status        string            `json:"status" yaml:"status"`
	Years         string            `json:"years" yaml:"years"`
	Degree        string            `json:"degree" yaml:"degree"`
	Direction     string            `json:"direction" yaml:"direction"`
	TechStack     string            `json:"tech_stack" yaml:"tech_stack"`
	SalaryPrev    string            `json:"salary_prev" yaml:"salary_prev"`
	LeaveTime     string            `json:"leave_time" yaml:"leave_time"`
	LeaveReason   string            `json:"leave_reason" yaml:"leave_reason"`
	Skills        string            `json:"skills" yaml:"skills"`
	Projects      string            `json:"projects" yaml:"projects"`
	Extras        map[string]string `json:"extras,omitempty" yaml:"extras"`
}

// ProfileField is a labelled, non-empty profile attribute.
type ProfileField struct {
	Key   string
	Label string
	Value string
}

// Fields returns the populated attributes in display order. Extras are not
// included; see ExtrasOrNil.
func (p CandidateProfile) Fields() []ProfileField {
	all := []ProfileField{
		{"city", "City", p.City},
		{"status", "Employment status", p.Status},
		{"years", "Years of experience", p.Years},
		{"degree", "Degree", p.Degree},
		{"direction", "Direction", p.Direction},
		{"tech_stack", "Tech stack", p.TechStack},
		{"salary_prev", "Previous salary", p.SalaryPrev},
		{"leave_time", "Available from", p.LeaveTime},
		{"leave_reason", "Reason for leaving", p.LeaveReason},
		{"skills", "Skills", p.Skills},
		{"projects", "Projects", p.Projects},
	}
	out := make([]ProfileField, 0, len(all))
	for _, f := range all {
		f.Value = strings.TrimSpace(f.Value)
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// ExtrasOrNil returns the extras with blank keys and values dropped, or nil
// when nothing remains.
func (p CandidateProfile) ExtrasOrNil() map[string]string {
	var out map[string]string
	for k, v := range p.Extras {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}
