package cli

import (
	"fmt"
	"time"

	"github.com/Ilay3/ProductionScheduler/internal/daemon"
)

// withDaemon runs fn against a fully wired daemon and closes it after.
func withDaemon(fn func(d *daemon.Daemon) error) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

// parseStart accepts an RFC 3339 timestamp or "2006-01-02 15:04" in
// local time. An empty value means now.
func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q (want RFC 3339 or \"2006-01-02 15:04\")", s)
	}
	return t, nil
}

func fmtTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmtTime(*t)
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Minute).String()
}
