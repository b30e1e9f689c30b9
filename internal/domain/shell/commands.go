package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/webterm/internal/domain/vfs"
)

type handler func(i *Interpreter, ctx context.Context, s *Session, args []string) (Result, error)

// handlers is the closed set of builtins.
var handlers = map[string]handler{
	"ls":      (*Interpreter).ls,
	"mkdir":   (*Interpreter).mkdir,
	"cd":      (*Interpreter).cd,
	"touch":   (*Interpreter).touch,
	"cat":     (*Interpreter).cat,
	"echo":    (*Interpreter).echo,
	"clear":   (*Interpreter).clear,
	"rm":      (*Interpreter).rm,
	"rmdir":   (*Interpreter).rmdir,
	"pwd":     (*Interpreter).pwd,
	"whoami":  (*Interpreter).whoami,
	"help":    (*Interpreter).help,
	"ping":    (*Interpreter).ping,
	"date":    (*Interpreter).date,
	"uptime":  (*Interpreter).uptime,
	"write":   (*Interpreter).write,
	"history": (*Interpreter).history,
}

var helpText = strings.Join([]string{
	"Available commands:",
	"  ls [path]             - List directory contents",
	"  mkdir <name>          - Create directory",
	"  cd [path]             - Change directory",
	"  touch <name>          - Create file",
	"  cat <file>            - Read file contents",
	"  echo <text>           - Display text",
	"  write <file> <text>   - Write text to file",
	"  clear                 - Clear screen",
	"  rm <file>             - Remove file",
	"  rmdir <dir>           - Remove directory and its contents",
	"  pwd                   - Print working directory",
	"  whoami                - Show current user",
	"  history               - Show command history",
	"  help                  - Show this help",
	"  ping [host]           - Test connectivity",
	"  date                  - Show current date",
	"  uptime                - Show system uptime",
	"",
	"Redirect output with > (overwrite) or >> (append).",
}, "\n")

const (
	clearSequence = "\x1b[2J\x1b[H"
	dateLayout    = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"
	lsDateLayout  = "1/2/2006"
)

func (i *Interpreter) ls(ctx context.Context, s *Session, args []string) (Result, error) {
	target, shown := s.CurrentPath, s.CurrentPath
	if len(args) > 0 {
		shown = unquote(args[0])
		target = resolvePath(s.CurrentPath, shown)
	}

	ok, err := i.fs.Exists(ctx, s.UserID, target)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, userError("ls: cannot access '%s': No such file or directory", shown)
	}

	entries, err := i.fs.List(ctx, s.UserID, target)
	if err != nil {
		return Result{}, err
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := "-"
		if e.IsFolder() {
			kind = "d"
		}
		lines = append(lines, fmt.Sprintf("%s%s %8d %s %s",
			kind, e.Permissions, e.Size, e.UpdatedAt.Local().Format(lsDateLayout), e.Name))
	}
	return Result{Output: strings.Join(lines, "\n")}, nil
}

func (i *Interpreter) mkdir(ctx context.Context, s *Session, args []string) (Result, error) {
	return i.createEach(ctx, s, "mkdir", args, vfs.TypeFolder)
}

func (i *Interpreter) touch(ctx context.Context, s *Session, args []string) (Result, error) {
	return i.createEach(ctx, s, "touch", args, vfs.TypeFile)
}

func (i *Interpreter) createEach(ctx context.Context, s *Session, cmd string, args []string, typ vfs.EntryType) (Result, error) {
	if len(args) == 0 {
		return Result{}, missingOperand(cmd)
	}
	for _, arg := range args {
		if _, err := i.fs.Create(ctx, s.UserID, s.CurrentPath, unquote(arg), typ, ""); err != nil {
			return Result{}, err
		}
	}
	return Result{}, nil
}

func (i *Interpreter) cd(ctx context.Context, s *Session, args []string) (Result, error) {
	arg := ""
	if len(args) > 0 {
		arg = unquote(args[0])
	}
	target := resolvePath(s.CurrentPath, arg)

	ok, err := i.fs.Exists(ctx, s.UserID, target)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, userError("cd: %s: No such file or directory", arg)
	}
	s.CurrentPath = target
	return Result{}, nil
}

func (i *Interpreter) cat(ctx context.Context, s *Session, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, missingOperand("cat")
	}
	name := unquote(args[0])
	content, err := i.fs.Read(ctx, s.UserID, s.CurrentPath, name)
	if errors.Is(err, vfs.ErrTypeMismatch) {
		return Result{}, userError("cat: %s: Is a directory", name)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Output: content}, nil
}

func (i *Interpreter) echo(_ context.Context, _ *Session, args []string) (Result, error) {
	return Result{Output: unquote(strings.Join(args, " "))}, nil
}

func (i *Interpreter) clear(context.Context, *Session, []string) (Result, error) {
	return Result{Output: clearSequence, Clear: true}, nil
}

func (i *Interpreter) rm(ctx context.Context, s *Session, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, missingOperand("rm")
	}
	name := unquote(args[0])
	err := i.fs.Delete(ctx, s.UserID, s.CurrentPath, name, vfs.TypeFile)
	if errors.Is(err, vfs.ErrTypeMismatch) {
		return Result{}, userError("rm: cannot remove '%s': Is a directory", name)
	}
	return Result{}, err
}

func (i *Interpreter) rmdir(ctx context.Context, s *Session, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, missingOperand("rmdir")
	}
	name := unquote(args[0])
	err := i.fs.Delete(ctx, s.UserID, s.CurrentPath, name, vfs.TypeFolder)
	if errors.Is(err, vfs.ErrTypeMismatch) {
		return Result{}, userError("rmdir: failed to remove '%s': Not a directory", name)
	}
	return Result{}, err
}

func (i *Interpreter) write(ctx context.Context, s *Session, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, missingOperand("write")
	}
	name := unquote(args[0])
	content := strings.Join(args[1:], " ")
	if err := i.writeFile(ctx, s, name, content, false); err != nil {
		if errors.Is(err, vfs.ErrTypeMismatch) {
			return Result{}, userError("write: %s: Is a directory", name)
		}
		return Result{}, err
	}
	return Result{}, nil
}

func (i *Interpreter) pwd(_ context.Context, s *Session, _ []string) (Result, error) {
	return Result{Output: s.CurrentPath}, nil
}

func (i *Interpreter) whoami(_ context.Context, s *Session, _ []string) (Result, error) {
	return Result{Output: s.Username}, nil
}

func (i *Interpreter) help(context.Context, *Session, []string) (Result, error) {
	return Result{Output: helpText}, nil
}

func (i *Interpreter) ping(_ context.Context, _ *Session, args []string) (Result, error) {
	target := "localhost"
	if len(args) > 0 {
		target = unquote(args[0])
	}
	return Result{Output: fmt.Sprintf("PING %s: 64 bytes from %s: icmp_seq=1 ttl=64 time=0.5ms", target, target)}, nil
}

func (i *Interpreter) date(context.Context, *Session, []string) (Result, error) {
	return Result{Output: i.now().Format(dateLayout)}, nil
}

func (i *Interpreter) uptime(context.Context, *Session, []string) (Result, error) {
	up := i.now().Sub(i.started)
	hours := int(up.Hours())
	minutes := int(up.Minutes()) % 60
	return Result{Output: fmt.Sprintf("up %dh %dm", hours, minutes)}, nil
}

func (i *Interpreter) history(_ context.Context, s *Session, _ []string) (Result, error) {
	lines := make([]string, len(s.History))
	for n, cmd := range s.History {
		lines[n] = fmt.Sprintf("%5d  %s", n+1, cmd)
	}
	return Result{Output: strings.Join(lines, "\n")}, nil
}

// resolvePath resolves arg against cwd. Empty and "~" mean the home
// directory, "~/" prefixes are expanded, absolute paths start from the
// root, "." is skipped and ".." pops one segment without leaving the root.
func resolvePath(cwd, arg string) string {
	switch {
	case arg == "" || arg == "~":
		return vfs.HomeDir
	case strings.HasPrefix(arg, "~/"):
		arg = vfs.HomeDir + arg[1:]
	}

	var segs []string
	if !strings.HasPrefix(arg, "/") {
		segs = vfs.Segments(cwd)
	}
	for _, part := range strings.Split(arg, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, part)
		}
	}
	return vfs.Root + strings.Join(segs, "/")
}
