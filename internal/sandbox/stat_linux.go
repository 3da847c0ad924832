package sandbox

import (
	"io/fs"
	"syscall"
	"time"
)

type fileTimes struct {
	accessed time.Time
	created  time.Time
}

// statTimes reads access and status-change times. Linux has no portable
// birth time, so the change time stands in for created.
func statTimes(info fs.FileInfo) fileTimes {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileTimes{accessed: info.ModTime(), created: info.ModTime()}
	}
	return fileTimes{
		accessed: time.Unix(st.Atim.Unix()),
		created:  time.Unix(st.Ctim.Unix()),
	}
}
