package result

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// maxArtifactBytes bounds how much of an HTTP body is captured.
const maxArtifactBytes = 1 << 20

// Artifact is a payload attached to a step result for reporting.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Embeddable is implemented by step return values that know how to render
// themselves as an artifact.
type Embeddable interface {
	Artifact() (Artifact, error)
}

// ArtifactOf converts a step return value into an artifact. ok is false when
// v is not embeddable.
func ArtifactOf(v any) (a Artifact, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return Artifact{}, false, nil
	case Artifact:
		return t, true, nil
	case *Artifact:
		if t == nil {
			return Artifact{}, false, nil
		}
		return *t, true, nil
	case Embeddable:
		a, err := t.Artifact()
		return a, err == nil, err
	case *http.Response:
		a, err := responseArtifact(t)
		return a, err == nil, err
	}
	return Artifact{}, false, nil
}

// responseArtifact captures the body of resp and restores it so the caller
// can still read it.
func responseArtifact(resp *http.Response) (Artifact, error) {
	if resp == nil {
		return Artifact{}, fmt.Errorf("nil http response")
	}
	name := resp.Status
	if resp.Request != nil && resp.Request.URL != nil {
		name = fmt.Sprintf("%s %s -> %s", resp.Request.Method, resp.Request.URL, resp.Status)
	}

	var data []byte
	if resp.Body != nil {
		var err error
		data, err = io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
		if err != nil {
			return Artifact{}, fmt.Errorf("reading response body: %w", err)
		}
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}
	return Artifact{Name: name, MediaType: resp.Header.Get("Content-Type"), Data: data}, nil
}
