package config

import (
	"reflect"

	logx "hwbot/pkg/logx"
)

// SectionLogging is the only section applied without a restart.
const SectionLogging = "logging"

// SummarizeChange lists the top-level sections that differ between two
// versions of the file, plus log fields describing the new logging setup.
func SummarizeChange(oldF, newF *File) ([]string, []logx.Field) {
	if oldF == nil {
		oldF = &File{}
	}
	if newF == nil {
		newF = &File{}
	}

	var changed []string
	if oldF.Practicum != newF.Practicum {
		changed = append(changed, "practicum")
	}
	if oldF.Telegram != newF.Telegram {
		changed = append(changed, "telegram")
	}
	if oldF.Poll != newF.Poll {
		changed = append(changed, "poll")
	}
	if !reflect.DeepEqual(oldF.Systemd, newF.Systemd) {
		changed = append(changed, "systemd")
	}

	var fields []logx.Field
	if oldF.Logging != newF.Logging {
		changed = append(changed, SectionLogging)
		l := newF.Logging
		fields = append(fields,
			logx.String("logging.level", l.Level),
			logx.Bool("logging.console", l.Console),
			logx.Bool("logging.file_enabled", l.File.Enabled),
			logx.Bool("logging.telegram_enabled", l.Telegram.Enabled),
			logx.String("logging.telegram_min_level", l.Telegram.MinLevel),
		)
	}
	return changed, fields
}

// RestartRequired filters changed down to sections that only take effect on
// the next start.
func RestartRequired(changed []string) []string {
	var out []string
	for _, s := range changed {
		if s != SectionLogging {
			out = append(out, s)
		}
	}
	return out
}
