package cmd

import (
	"io"

	"go.uber.org/zap"

	"github.com/bilalbayram/eventscli/internal/logging"
)

type Runtime struct {
	Profile *string
	Output  *string
	Debug   *bool
}

func (r Runtime) ProfileName() string {
	if r.Profile == nil {
		return ""
	}
	return *r.Profile
}

func (r Runtime) DebugEnabled() bool {
	return r.Debug != nil && *r.Debug
}

func (r Runtime) Logger(w io.Writer) *zap.Logger {
	return logging.New("events", w, r.DebugEnabled())
}
