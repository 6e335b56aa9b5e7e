package stats

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/cosmoslab/frisbee/internal/sector"
)

// LogrusSink forwards diagnostics to a *logrus.Logger as structured fields,
// formatting byte counts with go-humanize so log lines stay readable at
// terminal scale (sectors are converted to bytes via sector.Size).
type LogrusSink struct {
	log *logrus.Logger
}

// NewLogrusSink wraps log. A nil log falls back to logrus.StandardLogger().
func NewLogrusSink(log *logrus.Logger) *LogrusSink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogrusSink{log: log}
}

func (s *LogrusSink) bytesField(n uint32) string {
	return humanize.Bytes(uint64(n) * uint64(sector.Size))
}

func (s *LogrusSink) SectorsCompared(n uint32) {
	s.log.WithField("bytes", s.bytesField(n)).Debug("delta: sectors compared")
}

func (s *LogrusSink) SectorsSame(n uint32) {
	s.log.WithField("bytes", s.bytesField(n)).Debug("delta: sectors unchanged")
}

func (s *LogrusSink) SectorsChanged(n uint32) {
	s.log.WithField("bytes", s.bytesField(n)).Info("delta: sectors changed")
}

func (s *LogrusSink) SectorsOnlyOld(n uint32) {
	s.log.WithField("bytes", s.bytesField(n)).Info("delta: sectors only in old signature")
}

func (s *LogrusSink) SectorsOnlyNew(n uint32) {
	s.log.WithField("bytes", s.bytesField(n)).Info("delta: sectors only in current allocation")
}

func (s *LogrusSink) Warning(msg string) {
	s.log.Warn(msg)
}
