package snaphtml

import (
	"fmt"
	"maps"
	"net/url"
	"slices"

	"github.com/alnah/go-snaphtml/internal/fileutil"
)

// TargetKind tells how a Target's value is turned into a page address.
type TargetKind int

const (
	// KindURL is a remote address used as-is.
	KindURL TargetKind = iota + 1
	// KindFile is a local HTML file, loaded through a file:// URL.
	KindFile
	// KindHTML is inline markup, written to a temporary file first.
	KindHTML
)

func (k TargetKind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Target is one page to render.
type Target struct {
	Kind  TargetKind
	Value string
}

// URL returns a target for a remote page.
func URL(rawURL string) Target { return Target{Kind: KindURL, Value: rawURL} }

// File returns a target for a local HTML file.
func File(path string) Target { return Target{Kind: KindFile, Value: path} }

// HTML returns a target for inline markup. The markup is trusted verbatim.
func HTML(markup string) Target { return Target{Kind: KindHTML, Value: markup} }

func (t Target) String() string {
	if t.Kind == KindHTML {
		return fmt.Sprintf("html(%d bytes)", len(t.Value))
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
}

// Validate rejects unknown kinds and empty values.
func (t Target) Validate() error {
	switch t.Kind {
	case KindURL, KindFile, KindHTML:
	default:
		return fmt.Errorf("%w: unknown target kind %d", ErrInvalidArgument, int(t.Kind))
	}
	if t.Value == "" {
		return fmt.Errorf("%w: empty %s target", ErrInvalidArgument, t.Kind)
	}
	return nil
}

// Document builds an inline page from fragments. Fragments are inserted
// into a fixed skeleton without escaping.
type Document struct {
	Body string
	Head string
	CSS  string
}

// HTML returns the assembled markup.
func (d Document) HTML() string {
	return "<html><head>" + d.Head + "<style>" + d.CSS + "</style></head><body>" + d.Body + "</body></html>"
}

// Target returns an inline target for the assembled markup.
func (d Document) Target() Target { return HTML(d.HTML()) }

// Job pairs a target with its query parameters and optional output path.
type Job struct {
	Target     Target
	Query      map[string]string // merged into the page URL; nil = none
	OutputPath string            // empty = do not write
}

// ZipJobs builds jobs from parallel lists. A nil queries or outputs list
// means none for every target; a non-nil list must match targets in length.
func ZipJobs(targets []Target, queries []map[string]string, outputs []string) ([]Job, error) {
	if queries != nil && len(queries) != len(targets) {
		return nil, fmt.Errorf("%w: %d query maps for %d targets", ErrInvalidArgument, len(queries), len(targets))
	}
	if outputs != nil && len(outputs) != len(targets) {
		return nil, fmt.Errorf("%w: %d output paths for %d targets", ErrInvalidArgument, len(outputs), len(targets))
	}

	jobs := make([]Job, len(targets))
	for i, t := range targets {
		jobs[i].Target = t
		if queries != nil {
			jobs[i].Query = queries[i]
		}
		if outputs != nil {
			jobs[i].OutputPath = outputs[i]
		}
	}
	return jobs, nil
}

// address resolves t to a navigable URL. For inline targets the markup is
// written to a temporary file in tempDir; cleanup removes it.
func (t Target) address(tempDir string) (addr string, cleanup func(), err error) {
	cleanup = func() {}
	switch t.Kind {
	case KindURL:
		return t.Value, cleanup, nil
	case KindFile:
		addr, err = fileutil.FileURL(t.Value)
		return addr, cleanup, err
	case KindHTML:
		path, remove, err := fileutil.WriteTempFile(tempDir, t.Value, "html")
		if err != nil {
			return "", cleanup, fmt.Errorf("writing inline document: %w", err)
		}
		addr, err = fileutil.FileURL(path)
		if err != nil {
			remove()
			return "", cleanup, err
		}
		return addr, remove, nil
	default:
		return "", cleanup, fmt.Errorf("%w: unknown target kind %d", ErrInvalidArgument, int(t.Kind))
	}
}

// MergeQuery sets each key of params on rawURL's query string, replacing
// existing values. Keys are applied in sorted order so the result is
// deterministic.
func MergeQuery(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	q := u.Query()
	for _, k := range slices.Sorted(maps.Keys(params)) {
		q.Set(k, params[k])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
