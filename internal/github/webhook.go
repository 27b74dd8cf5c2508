package github

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	glerrors "github.com/wadakatu/gitlyte/internal/errors"
)

// Event is a parsed webhook delivery. Exactly one of the payload pointers is
// set, matching Type.
type Event struct {
	Type         string
	Push         *PushEvent
	PullRequest  *PullRequestEvent
	IssueComment *IssueCommentEvent
}

// Repo returns the repository the event belongs to.
func (e *Event) Repo() Repository {
	switch {
	case e.Push != nil:
		return e.Push.Repository
	case e.PullRequest != nil:
		return e.PullRequest.Repository
	case e.IssueComment != nil:
		return e.IssueComment.Repository
	}
	return Repository{}
}

// ValidateSignature checks a webhook payload against the X-Hub-Signature-256
// (or legacy X-Hub-Signature) header value.
func ValidateSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	// X-Hub-Signature-256 header, sha256=<hex digest>
	if strings.HasPrefix(signature, "sha256=") {
		expected := signature[len("sha256="):]
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		calc := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(calc))
	}

	// Legacy X-Hub-Signature header, sha1=<hex digest>
	if strings.HasPrefix(signature, "sha1=") {
		expected := signature[len("sha1="):]
		mac := hmac.New(sha1.New, []byte(secret))
		mac.Write(payload)
		calc := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(calc))
	}

	return false
}

// ParseWebhookEvent decodes a webhook payload by its X-GitHub-Event type.
func ParseWebhookEvent(eventType string, payload []byte) (*Event, error) {
	switch eventType {
	case "push":
		var ev PushEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityWarning, "decode push event")
		}
		return &Event{Type: eventType, Push: &ev}, nil
	case "pull_request":
		var ev PullRequestEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityWarning, "decode pull_request event")
		}
		return &Event{Type: eventType, PullRequest: &ev}, nil
	case "issue_comment":
		var ev IssueCommentEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, glerrors.Wrap(err, glerrors.CategoryValidation, glerrors.SeverityWarning, "decode issue_comment event")
		}
		return &Event{Type: eventType, IssueComment: &ev}, nil
	default:
		return nil, glerrors.New(glerrors.CategoryValidation, glerrors.SeverityInfo,
			fmt.Sprintf("unsupported event type: %s", eventType))
	}
}

// IsMergedPR reports whether a pull_request event is a merge of a closed PR.
func (e *PullRequestEvent) IsMergedPR() bool {
	return e.Action == "closed" && e.PullRequest.Merged
}
