// Package console turns a launched client's output pipe into a log file and
// a live line feed for the focused instance.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"weavectl/internal/eventbus"
	"weavectl/internal/model"
)

// Stream copies one process's merged stdout/stderr to its log file.
type Stream struct {
	PID     uint32
	Client  model.ClientKind
	LogPath string
	Source  io.ReadCloser

	Fs        afero.Fs
	Selection *Selection
	Publisher eventbus.Publisher
	Log       *logrus.Entry
}

// Run owns the log file and the pipe until the pipe reaches EOF or a write
// fails. The log file is created once, before the first line.
func (s *Stream) Run() error {
	defer s.Source.Close()

	logFile, err := s.Fs.OpenFile(s.LogPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	s.Publisher.Publish(eventbus.Event{
		Type:    eventbus.EventInstanceLaunched,
		PID:     s.PID,
		LogPath: s.LogPath,
		Client:  s.Client,
	})

	lines := 0
	br := bufio.NewReader(s.Source)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read output: %w", readErr)
		}
		if len(line) > 0 {
			line = trimEOL(line)
			if _, err := io.WriteString(logFile, line+"\n"); err != nil {
				return fmt.Errorf("write log file: %w", err)
			}
			lines++
			if s.Selection.Selected(s.PID) {
				s.Publisher.Publish(eventbus.Event{
					Type:    eventbus.EventConsoleLine,
					PID:     s.PID,
					LogPath: s.LogPath,
					Line:    line,
				})
			}
		}
		if readErr != nil {
			break
		}
	}
	if s.Log != nil {
		s.Log.WithField("lines", lines).Debug("output stream closed")
	}
	return nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
