//go:build !linux

package sandbox

import (
	"io/fs"
	"time"
)

type fileTimes struct {
	accessed time.Time
	created  time.Time
}

func statTimes(info fs.FileInfo) fileTimes {
	return fileTimes{accessed: info.ModTime(), created: info.ModTime()}
}
