// Package report writes the non-follower list to the output directory as a
// plain text file and a JSON document sharing one timestamp.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/models"
	"ignonfollowers/pkg/storage"
)

const (
	// FilePrefix starts every report file name
	FilePrefix = "non_followers_"

	timestampLayout = "20060102_150405"
	generatedLayout = "2006-01-02 15:04:05"
)

// Stats are the set sizes behind a report
type Stats struct {
	NonFollowersCount int `json:"non_followers_count"`
	FollowingCount    int `json:"following_count"`
	FollowersCount    int `json:"followers_count"`
}

// Report is the JSON document
type Report struct {
	ID           string              `json:"id"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Stats        Stats               `json:"stats"`
	NonFollowers []models.UserRecord `json:"non_followers"`
}

// Paths are the files written for one report
type Paths struct {
	TXT  string
	JSON string
}

// Exporter writes reports through a storage.Manager
type Exporter struct {
	storage *storage.Manager
	logger  logger.Logger
	newID   func() string
}

// NewExporter creates the output directory if needed
func NewExporter(outputDir string, log logger.Logger) (*Exporter, error) {
	mgr, err := storage.NewManager(outputDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "report.init", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{
		storage: mgr,
		logger:  log.WithField("component", "report"),
		newID:   uuid.NewString,
	}, nil
}

// New builds the report document. A nil list is written as [].
func New(list []models.UserRecord, followingCount, followersCount int, now time.Time) *Report {
	if list == nil {
		list = []models.UserRecord{}
	}
	return &Report{
		GeneratedAt: now,
		Stats: Stats{
			NonFollowersCount: len(list),
			FollowingCount:    followingCount,
			FollowersCount:    followersCount,
		},
		NonFollowers: list,
	}
}

// Write exports list as non_followers_<timestamp>.txt and .json. The list
// is written in the order given.
func (e *Exporter) Write(list []models.UserRecord, followingCount, followersCount int, now time.Time) (*Report, Paths, error) {
	r := New(list, followingCount, followersCount, now)
	r.ID = e.newID()

	base := FilePrefix + now.Format(timestampLayout)
	var paths Paths

	txtPath, err := e.storage.Save(base+".txt", FormatText(r))
	if err != nil {
		return nil, paths, apperrors.Wrap(apperrors.KindIO, "report.write_txt", err)
	}
	paths.TXT = txtPath

	data, err := FormatJSON(r)
	if err != nil {
		return nil, paths, apperrors.Wrap(apperrors.KindIO, "report.encode_json", err)
	}
	jsonPath, err := e.storage.Save(base+".json", data)
	if err != nil {
		return nil, paths, apperrors.Wrap(apperrors.KindIO, "report.write_json", err)
	}
	paths.JSON = jsonPath

	e.logger.WithFields(map[string]interface{}{
		"report_id":     r.ID,
		"txt":           paths.TXT,
		"json":          paths.JSON,
		"non_followers": r.Stats.NonFollowersCount,
	}).Info("Report written")
	return r, paths, nil
}

// History lists earlier report files, newest first
func (e *Exporter) History() ([]storage.FileInfo, error) {
	return e.storage.List(FilePrefix)
}

// Load reads a JSON report written by Write
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "report.load", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, apperrors.Wrap(apperrors.KindParsing, "report.load", err)
	}
	return &r, nil
}

// OutputDir returns the directory reports are written to
func (e *Exporter) OutputDir() string {
	return e.storage.GetOutputDir()
}

// FormatText renders the header block followed by one @username per line
func FormatText(r *Report) []byte {
	var b strings.Builder
	b.WriteString("# Non-Followers Report\n")
	fmt.Fprintf(&b, "# Generated: %s\n", r.GeneratedAt.Format(generatedLayout))
	fmt.Fprintf(&b, "# Total: %d\n", len(r.NonFollowers))
	b.WriteString("#" + strings.Repeat("-", 40) + "\n\n")
	for _, u := range r.NonFollowers {
		b.WriteString("@" + u.Username + "\n")
	}
	return []byte(b.String())
}

// FormatJSON renders the report with two-space indentation. Non-ASCII
// names are written as-is.
func FormatJSON(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
