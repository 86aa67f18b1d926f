package models

import "time"

// BackupRecord describes one library snapshot on disk
type BackupRecord struct {
	Path      string    `json:"path" yaml:"path"`
	FileName  string    `json:"fileName" yaml:"fileName"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Size      int64     `json:"size" yaml:"size"`
	ItemCount int       `json:"itemCount" yaml:"itemCount"`
}
