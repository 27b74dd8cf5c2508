package github

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestValidateSignature(t *testing.T) {
	secret := "test-secret-key"
	payload := `{"ref":"refs/heads/main","repository":{"name":"demo","full_name":"octocat/demo"}}`

	// Valid SHA-256 signature
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	signature := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !ValidateSignature([]byte(payload), signature, secret) {
		t.Error("ValidateSignature() should return true for valid SHA-256 signature")
	}

	// Invalid signature
	if ValidateSignature([]byte(payload), "sha256=invalid-signature", secret) {
		t.Error("ValidateSignature() should return false for invalid signature")
	}

	// Missing signature
	if ValidateSignature([]byte(payload), "", secret) {
		t.Error("ValidateSignature() should return false for missing signature")
	}

	// Missing secret
	if ValidateSignature([]byte(payload), signature, "") {
		t.Error("ValidateSignature() should return false for missing secret")
	}

	// SHA-1 fallback
	mac1 := hmac.New(sha1.New, []byte(secret))
	mac1.Write([]byte(payload))
	signatureSHA1 := "sha1=" + hex.EncodeToString(mac1.Sum(nil))

	if !ValidateSignature([]byte(payload), signatureSHA1, secret) {
		t.Error("ValidateSignature() should support SHA-1 signature fallback")
	}

	// Unknown scheme
	if ValidateSignature([]byte(payload), "md5=abcdef", secret) {
		t.Error("ValidateSignature() should return false for unknown signature scheme")
	}
}

func TestParseWebhookEventPush(t *testing.T) {
	payload := `{
		"ref": "refs/heads/main",
		"after": "abc123",
		"commits": [
			{"id": "c1", "message": "add docs", "added": ["docs/intro.md"], "modified": ["README.md"]},
			{"id": "c2", "message": "cleanup", "removed": ["old.txt"]}
		],
		"repository": {
			"name": "demo",
			"full_name": "octocat/demo",
			"default_branch": "main"
		}
	}`

	event, err := ParseWebhookEvent("push", []byte(payload))
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error = %v", err)
	}
	if event.Push == nil {
		t.Fatal("expected push payload to be set")
	}
	if got := event.Push.Branch(); got != "main" {
		t.Errorf("Branch() = %q, want %q", got, "main")
	}
	if got := event.Repo().FullName; got != "octocat/demo" {
		t.Errorf("Repo().FullName = %q, want %q", got, "octocat/demo")
	}

	paths := event.Push.ChangedPaths()
	want := []string{"docs/intro.md", "README.md", "old.txt"}
	if len(paths) != len(want) {
		t.Fatalf("ChangedPaths() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("ChangedPaths()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestParseWebhookEventPullRequest(t *testing.T) {
	payload := `{
		"action": "closed",
		"number": 12,
		"pull_request": {
			"number": 12,
			"title": "Add feature",
			"merged": true,
			"labels": [{"name": "gitlyte"}, {"name": "enhancement"}],
			"base": {"ref": "main", "sha": "base-sha"},
			"head": {"ref": "feature", "sha": "head-sha"}
		},
		"repository": {"full_name": "octocat/demo", "default_branch": "main"}
	}`

	event, err := ParseWebhookEvent("pull_request", []byte(payload))
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error = %v", err)
	}
	pr := event.PullRequest
	if pr == nil {
		t.Fatal("expected pull_request payload to be set")
	}
	if !pr.IsMergedPR() {
		t.Error("IsMergedPR() should be true for closed+merged")
	}
	labels := pr.PullRequest.LabelNames()
	if len(labels) != 2 || labels[0] != "gitlyte" {
		t.Errorf("LabelNames() = %v", labels)
	}
	if pr.PullRequest.Base.Ref != "main" {
		t.Errorf("Base.Ref = %q, want main", pr.PullRequest.Base.Ref)
	}
}

func TestParseWebhookEventPullRequestNotMerged(t *testing.T) {
	payload := `{
		"action": "closed",
		"pull_request": {"number": 3, "merged": false},
		"repository": {"full_name": "octocat/demo"}
	}`

	event, err := ParseWebhookEvent("pull_request", []byte(payload))
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error = %v", err)
	}
	if event.PullRequest.IsMergedPR() {
		t.Error("IsMergedPR() should be false for closed without merge")
	}
}

func TestParseWebhookEventIssueComment(t *testing.T) {
	payload := `{
		"action": "created",
		"issue": {
			"number": 5,
			"pull_request": {"url": "https://api.github.com/repos/octocat/demo/pulls/5"}
		},
		"comment": {"id": 1001, "body": "@gitlyte preview", "user": {"login": "octocat"}},
		"repository": {"full_name": "octocat/demo"}
	}`

	event, err := ParseWebhookEvent("issue_comment", []byte(payload))
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error = %v", err)
	}
	ic := event.IssueComment
	if ic == nil {
		t.Fatal("expected issue_comment payload to be set")
	}
	if ic.Comment.Body != "@gitlyte preview" {
		t.Errorf("Comment.Body = %q", ic.Comment.Body)
	}
	if ic.Issue.PullRequest == nil {
		t.Error("expected issue to reference a pull request")
	}
}

func TestParseWebhookEventUnsupported(t *testing.T) {
	_, err := ParseWebhookEvent("workflow_run", []byte(`{}`))
	if err == nil {
		t.Error("ParseWebhookEvent() should reject unsupported event types")
	}
}
