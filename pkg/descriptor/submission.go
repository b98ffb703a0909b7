package descriptor

import (
	"errors"
	"net/http"
	"strings"
)

// SubmissionRequest is a submission config with its templates evaluated:
// ready for whatever transport the host wires in.
type SubmissionRequest struct {
	URL     string
	Method  string
	Payload string
	Auth    *AuthConfig
}

// EvaluateSubmission resolves the descriptor's submission config against the
// final form context. The URL and payload are templates; the method defaults
// to POST. Transport stays with the caller.
func EvaluateSubmission(d GlobalFormDescriptor, evaluator Evaluator, ctx FormContext) (SubmissionRequest, error) {
	if d.Submission == nil {
		return SubmissionRequest{}, errors.New("descriptor: no submission config")
	}
	if evaluator == nil {
		return SubmissionRequest{}, errors.New("descriptor: evaluator is required")
	}

	url := strings.TrimSpace(evaluator.Evaluate(d.Submission.URL, ctx))
	if url == "" {
		return SubmissionRequest{}, errors.New("descriptor: submission url evaluated to an empty url")
	}

	method := strings.ToUpper(strings.TrimSpace(d.Submission.Method))
	if method == "" {
		method = http.MethodPost
	}

	return SubmissionRequest{
		URL:     url,
		Method:  method,
		Payload: evaluator.Evaluate(d.Submission.Payload, ctx),
		Auth:    cloneAuth(d.Submission.Auth),
	}, nil
}
