package ai

import (
	"encoding/json"
	"strings"

	"go-boss-assistant/internal/models"
)

const extrasLabel = "Custom fields"

// profileJSON renders the populated profile fields under their labels.
func profileJSON(p models.CandidateProfile, indent bool) string {
	out := make(map[string]any)
	for _, f := range p.Fields() {
		out[f.Label] = f.Value
	}
	if extras := p.ExtrasOrNil(); extras != nil {
		out[extrasLabel] = extras
	}

	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "{}"
	}
	return string(data)
}

// BuildReplySystemPrompt creates the auto-reply instructions with the
// candidate profile embedded.
func BuildReplySystemPrompt(p models.CandidateProfile) string {
	return strings.Join([]string{
		"You draft chat replies to recruiters on a job site, writing as me, the candidate.",
		"",
		"## My profile",
		profileJSON(p, false),
		"",
		"## Conversation format",
		"- " + models.RoleRecruiter.Label() + ": [message] = a message from the recruiter",
		"- " + models.RoleSelf.Label() + ": [message] = a reply I already sent",
		"- " + models.RoleSystem.Label() + ": [message] = a notice from the site",
		"",
		"## Questions you may answer (whitelist)",
		"Answer only these kinds of questions and nothing else:",
		"- City: where I am based or which city I am in",
		"- Employment status: whether I am currently employed",
		"- Years of experience: how many years I have worked",
		"- Degree: my education or school",
		"- Direction: which role or field I am looking for",
		"- Tech stack: which technologies I use",
		"- Previous salary: current or expected salary, only if present in my profile",
		"- Available from: when I can start, only if present in my profile",
		"- Reason for leaving: only if present in my profile",
		"- Projects: what projects I have worked on",
		"- " + extrasLabel + ": each key/value pair there may answer the matching question",
		"",
		"## Hard rules",
		"1. Use only what is literally present in my profile.",
		"2. Never invent anything that is not in my profile.",
		"3. Never infer or extend (if the profile does not name a bonus structure, do not mention one).",
		"4. Do not answer questions I already replied to.",
		"5. Keep replies short and exact; give the answer directly.",
		"6. Reply in the language the recruiter uses.",
		"",
		"## Procedure",
		"1. Find every recruiter question that I have not replied to yet.",
		"2. For each one, check whether my profile holds an exact answer.",
		"3. If every unanswered question can be answered, set can_answer=true and answer each on its own line in reply.",
		"4. If any unanswered question has no exact answer in my profile, set can_answer=false.",
		"",
		"## Output",
		"Output JSON only, no other text:",
		`{"can_answer": true/false, "reply": "..."}`,
	}, "\n")
}

// BuildReplyUserPrompt wraps the bracketed transcript.
func BuildReplyUserPrompt(transcript string) string {
	return "Conversation:\n" + transcript
}

// BuildGreetingSystemPrompt creates the opening-message instructions.
func BuildGreetingSystemPrompt(p models.CandidateProfile) string {
	return strings.Join([]string{
		"You write opening messages from a candidate to a recruiter, tailored to the job description.",
		"",
		"## Candidate",
		profileJSON(p, true),
		"",
		"## Output format: exactly two lines",
		"Line 1: greeting + one or two concrete requirements from the job description + interest in the role.",
		"Line 2: how I meet those requirements (technology, experience, projects, with numbers where the profile has them).",
		"",
		"## Rules",
		"1. Line 1 must name concrete keywords from the job description (tech stack, experience, domain), never just the job title.",
		"2. Line 2 must answer the requirements named in line 1.",
		"3. Mention only requirements the job states and the candidate actually has.",
		"4. Never invent skills or experience missing from the candidate profile.",
		"5. A strong degree or school may be mentioned in line 2.",
		"6. Addressing the recruiter, in order:",
		"   - title is senior (manager, director, head, lead): surname + title",
		"   - otherwise, gender is clear from the name: surname + Mr./Ms.",
		"   - otherwise: a plain greeting with no name",
		"7. Write in the language of the job description.",
		"",
		"## Good examples",
		"",
		"Hi, I saw your Go backend role asks for microservices and high-concurrency experience, and I am very interested.",
		"I have 3 years of Go, built an order system handling a million orders a day, and know gRPC and Redis well.",
		"",
		"Hello Manager Wang, the QA role asks for test automation and CI/CD, which is exactly my focus.",
		"I have 4 years in QA with Selenium and Jenkins and owned quality for a payments module.",
		"",
		"Hi Ms. Li, your ops role asks for Kubernetes and cloud-native experience, and I would love to talk.",
		"I have 3 years of DevOps and led the containerisation and monitoring of a hundred-server fleet.",
		"",
		"## Bad examples (forbidden)",
		`x "Saw the Java role, very interested" - names no requirement, reads like a mass message`,
		`x "Your role matches me well" - too vague`,
		"",
		"Output the two lines only, 60 to 100 characters in total, nothing else.",
	}, "\n")
}

// BuildGreetingUserPrompt lists the job fields, marking unknown ones.
func BuildGreetingUserPrompt(job models.JobInfo) string {
	or := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}

	var hr []string
	if job.HRName != "" {
		hr = append(hr, "name: "+job.HRName)
	}
	if job.HRTitle != "" {
		hr = append(hr, "title: "+job.HRTitle)
	}

	lines := []string{
		"Job:",
		"Title: " + or(job.JobName, "unknown"),
		"Company: " + or(job.Company, "unknown"),
		"Salary: " + or(job.Salary, "unknown"),
		"City: " + or(job.City, "unknown"),
	}
	if len(hr) > 0 {
		lines = append(lines, "Recruiter: "+strings.Join(hr, ", "))
	}
	lines = append(lines,
		"",
		"Job description:",
		or(job.Description, "none"),
		"",
		"Write the opening message:",
	)
	return strings.Join(lines, "\n")
}
