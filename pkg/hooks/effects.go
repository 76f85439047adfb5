package hooks

// Effects accumulates the side effects special-variable assignments
// trigger. History, mail checking, getopts, the line editor, and the
// tracing file descriptor all live outside this value-store core, so
// a callback never calls into them directly — it records intent here,
// and the embedding shell reads Effects back out after the assignment
// completes.
type Effects struct {
	// IFS is the last value assigned to IFS, kept here so callers doing
	// word splitting do not need to re-read the variable store.
	IFS string
	IFSChanged bool

	// PathRehash is set whenever an assignment to PATH or CDPATH
	// requires the command-hash table to be rebuilt.
	PathRehash bool

	// MailFiles/MailPathFiles mirror MAIL and MAILPATH; the mail
	// checker reads whichever was most recently set.
	MailFiles     []string
	MailPathFiles []string

	HistSize     int
	HistFileSize int
	HistControl  string
	HistIgnore   string

	GlobIgnore string
	ExecIgnore string

	Optind int
	Opterr bool

	PosixMode bool

	Timezone string

	// XtraceFD is the file descriptor BASH_XTRACEFD redirects `set -x`
	// trace output to; NewEffects sets it to 2 (stderr) until
	// BASH_XTRACEFD is assigned.
	XtraceFD int

	CompatLevel string

	Lines   int
	Columns int

	FuncNest int

	// Errors records non-fatal problems a callback wants surfaced
	// (e.g. an unparsable BASH_COMPAT) without aborting the
	// assignment itself.
	Errors []error
}

// NewEffects returns an Effects with the same defaults bash assumes
// before any of these variables have been assigned.
func NewEffects() *Effects {
	return &Effects{XtraceFD: 2, Opterr: true, FuncNest: 0}
}
