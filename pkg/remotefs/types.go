package remotefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Routes served by the remote side, relative to the /api root.
const (
	RouteReadText     = "/fs/readtext"
	RouteReadBinary   = "/fs/readbinary"
	RouteReadFolder   = "/fs/readfolder"
	RouteGetStats     = "/fs/getstats"
	RouteWriteFile    = "/fs/writefile"
	RouteDeleteFile   = "/fs/deletefile"
	RouteMakeFolder   = "/fs/makefolder"
	RouteDeleteFolder = "/fs/deletefolder"
	RouteCopyFile     = "/fs/copyfile"
	RouteRelativePath = "/fs/relativepath"
)

// EntryType classifies a folder entry.
type EntryType string

const (
	TypeFile   EntryType = "file"
	TypeFolder EntryType = "folder"
	TypeOther  EntryType = "other"
)

// Entry is one item of a folder listing.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type EntryType `json:"type"`
}

// Stats describes a file or folder.
type Stats struct {
	Path     string    `json:"path"`
	Type     EntryType `json:"type"`
	Accessed Timestamp `json:"accessed"`
	Modified Timestamp `json:"modified"`
	Created  Timestamp `json:"created"`
}

// CopySpec names one source/destination pair for CopyFiles.
type CopySpec struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
}

// MakeFolderArgs is the argument shape of the make-folder call.
type MakeFolderArgs struct {
	Path    string `json:"path"`
	ExistOK bool   `json:"exist_ok"`
}

// TimestampLayout is the layout the server uses for naive local times.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

// Timestamp keeps the ISO string reported by the server together with its
// parsed value. Time is zero when Raw does not match a known layout.
type Timestamp struct {
	Raw  string
	Time time.Time
}

// NewTimestamp formats t with TimestampLayout.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Raw: t.Format(TimestampLayout), Time: t}
}

// ParseTimestamp parses raw using the layouts the server is known to emit.
// Zone-less values are read in the local time zone.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return Timestamp{Raw: raw, Time: t}, nil
		}
	}
	return Timestamp{Raw: raw}, fmt.Errorf("remotefs: unrecognised timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("remotefs: timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		// keep the raw text, the server format is not ours to enforce
		*t = Timestamp{Raw: raw}
		return nil
	}
	*t = parsed
	return nil
}

var (
	// ErrNotFound indicates the requested file or folder is missing.
	ErrNotFound = errors.New("remotefs: not found")
	// ErrExists indicates the target already exists.
	ErrExists = errors.New("remotefs: already exists")
	// ErrNotEmpty indicates a folder still has entries.
	ErrNotEmpty = errors.New("remotefs: folder not empty")
	// ErrIsFolder indicates a file operation was applied to a folder.
	ErrIsFolder = errors.New("remotefs: is a folder")
	// ErrNotFolder indicates a folder operation was applied to a file.
	ErrNotFolder = errors.New("remotefs: not a folder")
)
