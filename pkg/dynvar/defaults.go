package dynvar

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strconv"
	"time"

	"github.com/cpsource/shvars/pkg/variable"
)

// CallFrame describes one entry of the call stack, for the
// FUNCNAME/BASH_SOURCE/BASH_LINENO trio: three indexed arrays kept in
// lockstep by the executor's call stack — an external collaborator
// this core does not own.
type CallFrame struct {
	FuncName string
	Source   string
	Line     int
}

// Context supplies the external state and collaborators the default
// dynamic-variable set reads from: wall-clock time, the process id,
// the subshell nesting counter, the history and call stacks, the
// directory stack, and the group/alias/builtin tables. Every field has
// a safe zero value (an empty stack, pid 0, a fixed clock base), so a
// caller that only cares about a handful of these names can leave the
// rest unset.
type Context struct {
	Rand       *mrand.Rand
	SecondsBase time.Time
	Pid        int
	Subshell   int

	HistCmd      func() int
	LineNo       func() int
	CallStack    func() []CallFrame
	DirStack     func() []string
	Groups       func() []string
	BuiltinCmds  func() map[string]string
	Aliases      func() map[string]string
}

func (c *Context) histCmd() int {
	if c.HistCmd == nil {
		return 0
	}
	return c.HistCmd()
}

func (c *Context) lineNo() int {
	if c.LineNo == nil {
		return 0
	}
	return c.LineNo()
}

func (c *Context) callStack() []CallFrame {
	if c.CallStack == nil {
		return nil
	}
	return c.CallStack()
}

func (c *Context) dirStack() []string {
	if c.DirStack == nil {
		return nil
	}
	return c.DirStack()
}

func (c *Context) groups() []string {
	if c.Groups == nil {
		return nil
	}
	return c.Groups()
}

func (c *Context) builtinCmds() map[string]string {
	if c.BuiltinCmds == nil {
		return nil
	}
	return c.BuiltinCmds()
}

func (c *Context) aliases() map[string]string {
	if c.Aliases == nil {
		return nil
	}
	return c.Aliases()
}

// RegisterDefaults populates r with every well-known dynamic name this
// package supports, bound to ctx. Passing a zero-value
// *Context is valid; every name still installs, just with inert
// defaults (pid 0, no call stack, no directory stack).
func RegisterDefaults(r *Registry, ctx *Context) {
	if ctx.Rand == nil {
		ctx.Rand = mrand.New(mrand.NewSource(1))
	}
	if ctx.SecondsBase.IsZero() {
		ctx.SecondsBase = time.Now()
	}

	registerSeconds(r, ctx)
	registerRandom(r, ctx)
	registerSRandom(r)
	registerLineno(r, ctx)
	registerBashpid(r, ctx)
	registerEpoch(r)
	registerSubshell(r, ctx)
	registerHistcmd(r, ctx)
	registerCallStackArrays(r, ctx)
	registerDirstack(r, ctx)
	registerGroups(r, ctx)
	registerHashTables(r, ctx)
}

// registerSeconds wires SECONDS: reading it returns the integer number
// of seconds elapsed since ctx.SecondsBase; assigning it rebases that
// elapsed count to the assigned value, the same way bash lets a script
// "fast forward" or reset its own uptime counter.
func registerSeconds(r *Registry, ctx *Context) {
	r.Register("SECONDS", func() *variable.Variable {
		v := variable.NewScalar("SECONDS", "0")
		v.Attrs = v.Attrs.Set(variable.Integer)
		v.Getter = func(v *variable.Variable) error {
			elapsed := int64(time.Since(ctx.SecondsBase).Seconds())
			return rawSet(v, strconv.FormatInt(elapsed, 10))
		}
		v.Setter = func(v *variable.Variable, value string, _ int, _ string) error {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				n = 0
			}
			ctx.SecondsBase = time.Now().Add(-time.Duration(n) * time.Second)
			return rawSet(v, strconv.FormatInt(n, 10))
		}
		return v
	})
}

// registerRandom wires RANDOM: each read draws a fresh value in
// [0,32767] from ctx.Rand, rerolling once if it would repeat the
// immediately preceding value — bash itself never returns the same
// value twice in a row. Assigning RANDOM reseeds the generator,
// matching bash's `RANDOM=n` reseed behavior. A read that observes
// ctx.Subshell has changed since the last read — meaning a subshell
// fork happened in between — reseeds the generator from OS entropy
// before drawing, the same automatic reseed-on-first-read-in-a-new-
// subshell bash performs so forked subshells don't all inherit and
// replay their parent's exact RANDOM sequence.
func registerRandom(r *Registry, ctx *Context) {
	var last = -1
	lastSubshell := ctx.Subshell
	r.Register("RANDOM", func() *variable.Variable {
		v := variable.NewScalar("RANDOM", "0")
		v.Attrs = v.Attrs.Set(variable.Integer)
		v.Getter = func(v *variable.Variable) error {
			if ctx.Subshell != lastSubshell {
				ctx.Rand = mrand.New(mrand.NewSource(entropySeed()))
				lastSubshell = ctx.Subshell
				last = -1
			}
			n := ctx.Rand.Intn(32768)
			if n == last {
				n = ctx.Rand.Intn(32768)
			}
			last = n
			return rawSet(v, strconv.Itoa(n))
		}
		v.Setter = func(v *variable.Variable, value string, _ int, _ string) error {
			seed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				seed = 0
			}
			ctx.Rand = mrand.New(mrand.NewSource(seed))
			last = -1
			lastSubshell = ctx.Subshell
			return rawSet(v, value)
		}
		return v
	})
}

// entropySeed draws a fresh int64 seed from the OS entropy source —
// the same crypto/rand draw SRANDOM uses — for reseeding RANDOM's
// generator on the first read after a subshell fork.
func entropySeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return time.Now().UnixNano()
	}
	return n.Int64()
}

// registerSRandom wires SRANDOM: a cryptographically random 32-bit
// value on every read, with no meaningful assignment — bash documents
// SRANDOM as unsettable, so the Setter here accepts the write without
// error but leaves the generator untouched, rather than rejecting it
// and forcing every caller to special-case this one name.
func registerSRandom(r *Registry) {
	r.Register("SRANDOM", func() *variable.Variable {
		v := variable.NewScalar("SRANDOM", "0")
		v.Attrs = v.Attrs.Set(variable.Integer)
		v.Getter = func(v *variable.Variable) error {
			n, err := rand.Int(rand.Reader, big.NewInt(1<<32))
			if err != nil {
				return rawSet(v, "0")
			}
			return rawSet(v, n.String())
		}
		v.Setter = func(v *variable.Variable, _ string, _ int, _ string) error {
			return nil
		}
		return v
	})
}

func registerLineno(r *Registry, ctx *Context) {
	r.Register("LINENO", func() *variable.Variable {
		v := variable.NewScalar("LINENO", "0")
		v.Attrs = v.Attrs.Set(variable.Integer)
		v.Getter = func(v *variable.Variable) error {
			return rawSet(v, strconv.Itoa(ctx.lineNo()))
		}
		return v
	})
}

func registerBashpid(r *Registry, ctx *Context) {
	r.Register("BASHPID", func() *variable.Variable {
		v := variable.NewScalar("BASHPID", "0")
		v.Attrs = v.Attrs.Set(variable.Integer | variable.Readonly)
		v.Getter = func(v *variable.Variable) error {
			return rawSet(v, strconv.Itoa(ctx.Pid))
		}
		return v
	})
}

func registerEpoch(r *Registry) {
	r.Register("EPOCHSECONDS", func() *variable.Variable {
		v := variable.NewScalar("EPOCHSECONDS", "0")
		v.Getter = func(v *variable.Variable) error {
			return rawSet(v, strconv.FormatInt(time.Now().Unix(), 10))
		}
		return v
	})
	r.Register("EPOCHREALTIME", func() *variable.Variable {
		v := variable.NewScalar("EPOCHREALTIME", "0.000000")
		v.Getter = func(v *variable.Variable) error {
			now := time.Now()
			return rawSet(v, fmt.Sprintf("%d.%06d", now.Unix(), now.Nanosecond()/1000))
		}
		return v
	})
}

func registerSubshell(r *Registry, ctx *Context) {
	r.Register("BASH_SUBSHELL", func() *variable.Variable {
		v := variable.NewScalar("BASH_SUBSHELL", "0")
		v.Attrs = v.Attrs.Set(variable.Integer | variable.Readonly)
		v.Getter = func(v *variable.Variable) error {
			return rawSet(v, strconv.Itoa(ctx.Subshell))
		}
		return v
	})
}

func registerHistcmd(r *Registry, ctx *Context) {
	r.Register("HISTCMD", func() *variable.Variable {
		v := variable.NewScalar("HISTCMD", "0")
		v.Attrs = v.Attrs.Set(variable.Integer | variable.Readonly)
		v.Getter = func(v *variable.Variable) error {
			return rawSet(v, strconv.Itoa(ctx.histCmd()))
		}
		return v
	})
}

// registerCallStackArrays wires FUNCNAME, BASH_SOURCE, and
// BASH_LINENO, the three indexed arrays bash keeps in lockstep across
// the function call stack. Each Getter re-reads the full stack on
// every access rather than caching, since the executor's call stack
// can change between any two reads.
func registerCallStackArrays(r *Registry, ctx *Context) {
	r.Register("FUNCNAME", func() *variable.Variable {
		v := variable.NewIndexedArray("FUNCNAME")
		v.Getter = func(v *variable.Variable) error {
			return refreshIndexedFromCallStack(v, ctx, func(f CallFrame) string { return f.FuncName })
		}
		return v
	})
	r.Register("BASH_SOURCE", func() *variable.Variable {
		v := variable.NewIndexedArray("BASH_SOURCE")
		v.Getter = func(v *variable.Variable) error {
			return refreshIndexedFromCallStack(v, ctx, func(f CallFrame) string { return f.Source })
		}
		return v
	})
	r.Register("BASH_LINENO", func() *variable.Variable {
		v := variable.NewIndexedArray("BASH_LINENO")
		v.Getter = func(v *variable.Variable) error {
			return refreshIndexedFromCallStack(v, ctx, func(f CallFrame) string { return strconv.Itoa(f.Line) })
		}
		return v
	})
}

func refreshIndexedFromCallStack(v *variable.Variable, ctx *Context, field func(CallFrame) string) error {
	for _, i := range v.Indices() {
		v.DeleteAt(i)
	}
	for i, frame := range ctx.callStack() {
		if err := v.SetAt(i, field(frame)); err != nil {
			return err
		}
	}
	return nil
}

func registerDirstack(r *Registry, ctx *Context) {
	r.Register("DIRSTACK", func() *variable.Variable {
		v := variable.NewIndexedArray("DIRSTACK")
		v.Getter = func(v *variable.Variable) error {
			return refreshIndexed(v, ctx.dirStack())
		}
		return v
	})
}

func registerGroups(r *Registry, ctx *Context) {
	r.Register("GROUPS", func() *variable.Variable {
		v := variable.NewIndexedArray("GROUPS")
		v.Getter = func(v *variable.Variable) error {
			return refreshIndexed(v, ctx.groups())
		}
		return v
	})
}

func refreshIndexed(v *variable.Variable, elems []string) error {
	for _, i := range v.Indices() {
		v.DeleteAt(i)
	}
	for i, e := range elems {
		if err := v.SetAt(i, e); err != nil {
			return err
		}
	}
	return nil
}

func registerHashTables(r *Registry, ctx *Context) {
	r.Register("BASH_CMDS", func() *variable.Variable {
		v := variable.NewAssocArray("BASH_CMDS")
		v.Getter = func(v *variable.Variable) error {
			return refreshAssoc(v, ctx.builtinCmds())
		}
		return v
	})
	r.Register("BASH_ALIASES", func() *variable.Variable {
		v := variable.NewAssocArray("BASH_ALIASES")
		v.Getter = func(v *variable.Variable) error {
			return refreshAssoc(v, ctx.aliases())
		}
		return v
	})
}

func refreshAssoc(v *variable.Variable, table map[string]string) error {
	for _, k := range v.Keys() {
		v.DeleteAtKey(k)
	}
	for k, val := range table {
		if err := v.SetAtKey(k, val); err != nil {
			return err
		}
	}
	return nil
}

// rawSet caches a freshly computed dynamic value via Variable.Refresh,
// bypassing Set entirely so a Getter never re-enters its own Setter.
func rawSet(v *variable.Variable, value string) error {
	v.Refresh(value)
	return nil
}
