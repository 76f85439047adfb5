package hooks

import (
	"strconv"
	"strings"

	"github.com/cpsource/shvars/pkg/errs"
)

// RegisterDefaults populates r with the well-known special-variable
// callbacks: IFS, PATH, MAIL/MAILPATH, the HIST* family,
// GLOBIGNORE/EXECIGNORE, OPTIND/OPTERR, POSIXLY_CORRECT, TZ,
// BASH_XTRACEFD, BASH_COMPAT, LINES/COLUMNS, and FUNCNEST.
func RegisterDefaults(r *Registry) {
	r.Register("IFS", func(eff *Effects, value string) error {
		eff.IFS = value
		eff.IFSChanged = true
		return nil
	})

	r.Register("PATH", func(eff *Effects, value string) error {
		eff.PathRehash = true
		return nil
	})
	r.Register("CDPATH", func(eff *Effects, value string) error {
		eff.PathRehash = true
		return nil
	})

	r.Register("MAIL", func(eff *Effects, value string) error {
		if value == "" {
			eff.MailFiles = nil
			return nil
		}
		eff.MailFiles = []string{value}
		return nil
	})
	r.Register("MAILPATH", func(eff *Effects, value string) error {
		if value == "" {
			eff.MailPathFiles = nil
			return nil
		}
		eff.MailPathFiles = strings.Split(value, ":")
		return nil
	})

	r.Register("HISTSIZE", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		eff.HistSize = n
		return nil
	})
	r.Register("HISTFILESIZE", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		eff.HistFileSize = n
		return nil
	})
	r.Register("HISTCONTROL", func(eff *Effects, value string) error {
		eff.HistControl = value
		return nil
	})
	r.Register("HISTIGNORE", func(eff *Effects, value string) error {
		eff.HistIgnore = value
		return nil
	})

	r.Register("GLOBIGNORE", func(eff *Effects, value string) error {
		eff.GlobIgnore = value
		return nil
	})
	r.Register("EXECIGNORE", func(eff *Effects, value string) error {
		eff.ExecIgnore = value
		return nil
	})

	r.Register("OPTIND", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			n = 1
		}
		eff.Optind = n
		return nil
	})
	r.Register("OPTERR", func(eff *Effects, value string) error {
		eff.Opterr = value != "0"
		return nil
	})

	r.Register("POSIXLY_CORRECT", func(eff *Effects, value string) error {
		eff.PosixMode = true
		return nil
	})

	r.Register("TZ", func(eff *Effects, value string) error {
		eff.Timezone = value
		return nil
	})

	r.Register("BASH_XTRACEFD", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			eff.Errors = append(eff.Errors, errs.ErrFdInvalid)
			return nil
		}
		eff.XtraceFD = n
		return nil
	})

	r.Register("BASH_COMPAT", func(eff *Effects, value string) error {
		level, err := parseCompatLevel(value)
		if err != nil {
			eff.Errors = append(eff.Errors, errs.ErrCompatRange)
			return nil
		}
		eff.CompatLevel = strconv.Itoa(clampCompatLevel(level))
		return nil
	})

	r.Register("LINES", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		eff.Lines = n
		return nil
	})
	r.Register("COLUMNS", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		eff.Columns = n
		return nil
	})

	r.Register("FUNCNEST", func(eff *Effects, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		eff.FuncNest = n
		return nil
	})
}

// minCompatLevel and maxCompatLevel bound the permitted BASH_COMPAT
// range: the oldest level bash still recognizes, and "current", the
// newest.
const (
	minCompatLevel = 31
	maxCompatLevel = 52
)

// parseCompatLevel parses a BASH_COMPAT value in either bash's dotted
// "4.4" form or its internal two-digit "44" form into an integer
// level. An error here means value didn't parse as a number at all —
// the one case that reports CompatRange as an error rather than
// clamping into range.
func parseCompatLevel(value string) (int, error) {
	normalized := strings.ReplaceAll(value, ".", "")
	return strconv.Atoi(normalized)
}

// clampCompatLevel clamps n into [31, current], the permitted
// BASH_COMPAT range, for a level that parses fine but falls outside
// that range.
func clampCompatLevel(n int) int {
	if n < minCompatLevel {
		return minCompatLevel
	}
	if n > maxCompatLevel {
		return maxCompatLevel
	}
	return n
}
