package terminal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
	"github.com/GriffinCanCode/playground/internal/vfs"
)

// Terminal executes shell lines against one project
type Terminal struct {
	fs       FileSystem
	log      Log
	focus    Focus
	logger   *zap.Logger
	commands map[string]command
}

// New creates a terminal. focus may be nil.
func New(fs FileSystem, log Log, focus Focus, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{
		fs:       fs,
		log:      log,
		focus:    focus,
		logger:   logger,
		commands: commands(),
	}
}

func commands() map[string]command {
	return map[string]command{
		"ls":    {usage: "ls [pattern|dir]", summary: "list files", run: (*Terminal).ls},
		"mkdir": {usage: "mkdir <directory_name>", summary: "create a directory", minArgs: 1, run: (*Terminal).mkdir},
		"touch": {usage: "touch <file_name>", summary: "create an empty file", minArgs: 1, run: (*Terminal).touch},
		"rm":    {usage: "rm <file_or_directory>", summary: "remove a file or directory", minArgs: 1, run: (*Terminal).rm},
		"cat":   {usage: "cat <file_name>", summary: "print a file", minArgs: 1, run: (*Terminal).cat},
		"pwd":   {usage: "pwd", summary: "print the working directory", run: (*Terminal).pwd},
		"echo":  {usage: "echo [text...]", summary: "print text", run: (*Terminal).echo},
		"clear": {usage: "clear", summary: "clear the terminal", run: (*Terminal).clear},
		"help":  {usage: "help", summary: "list commands", run: (*Terminal).help},
	}
}

// Execute runs one line. Blank lines do nothing and return nil.
func (t *Terminal) Execute(line string) *Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	res := &Result{}
	t.emit(res, types.LevelInfo, "$ "+line)

	if err := utils.ValidateCommand(line); err != nil {
		t.fail(res, err, err.Error())
		return res
	}

	fields := strings.Fields(line)
	res.Verb = fields[0]
	args := fields[1:]

	cmd, ok := t.commands[res.Verb]
	switch {
	case !ok:
		t.fail(res, fmt.Errorf("%w: %s", ErrCommandNotFound, res.Verb), "Command not found: "+res.Verb)
	case len(args) < cmd.minArgs:
		t.fail(res, fmt.Errorf("missing operand for %s", res.Verb), "Usage: "+cmd.usage)
	default:
		cmd.run(t, res, args)
	}

	t.logger.Debug("Terminal command",
		zap.String("verb", res.Verb),
		zap.Bool("ok", res.OK()))
	return res
}

func (t *Terminal) emit(res *Result, level types.Level, msg string) {
	res.Records = append(res.Records, t.log.Append(level, msg))
}

func (t *Terminal) fail(res *Result, err error, msg string) {
	res.Err = err
	t.emit(res, types.LevelError, msg)
}

// describe turns a store error into shell wording
func describe(verb, arg string, err error) string {
	switch {
	case errors.Is(err, vfs.ErrPathExists):
		if verb == "mkdir" {
			return fmt.Sprintf("%s: %s: File or directory exists", verb, arg)
		}
		return fmt.Sprintf("%s: %s: File exists", verb, arg)
	case errors.Is(err, vfs.ErrNotFound):
		return fmt.Sprintf("%s: %s: No such file or directory", verb, arg)
	case errors.Is(err, vfs.ErrLastFile):
		return fmt.Sprintf("%s: %s: cannot remove the last file in the project", verb, arg)
	case errors.Is(err, vfs.ErrInvalidPath):
		return fmt.Sprintf("%s: %s: Invalid path", verb, arg)
	}
	return fmt.Sprintf("%s: %s: %v", verb, arg, err)
}

func (t *Terminal) ls(res *Result, args []string) {
	files := t.fs.List()
	all := make([]string, len(files))
	for i, f := range files {
		all[i] = f.Path
	}

	if len(args) == 0 {
		t.emit(res, types.LevelLog, strings.Join(all, "\n"))
		return
	}

	arg := args[0]
	var matched []string
	switch {
	case t.fs.IsDir(arg):
		dir, _ := paths.Normalize(arg)
		for _, p := range all {
			if paths.Under(p, dir) {
				matched = append(matched, p)
			}
		}
	default:
		pattern := strings.TrimPrefix(arg, "/")
		if !doublestar.ValidatePattern(pattern) {
			t.fail(res, fmt.Errorf("%w: %s", doublestar.ErrBadPattern, arg), fmt.Sprintf("ls: %s: Invalid pattern", arg))
			return
		}
		for _, p := range all {
			if ok, _ := doublestar.Match(pattern, p); ok {
				matched = append(matched, p)
			}
		}
	}

	if len(matched) == 0 {
		t.fail(res, fmt.Errorf("%w: %s", vfs.ErrNotFound, arg), describe("ls", arg, vfs.ErrNotFound))
		return
	}
	t.emit(res, types.LevelLog, strings.Join(matched, "\n"))
}

func (t *Terminal) mkdir(res *Result, args []string) {
	dir := args[0]
	if _, err := t.fs.Mkdir(dir); err != nil {
		t.fail(res, err, describe("mkdir", dir, err))
		return
	}
	t.emit(res, types.LevelLog, fmt.Sprintf("Directory %s created.", dir))
}

func (t *Terminal) touch(res *Result, args []string) {
	name := args[0]
	file, err := t.fs.Create(name, "")
	if err != nil {
		t.fail(res, err, describe("touch", name, err))
		return
	}
	if t.focus != nil {
		t.focus.SetActive(file.Path)
	}
	t.emit(res, types.LevelLog, fmt.Sprintf("File %s created.", name))
}

func (t *Terminal) rm(res *Result, args []string) {
	target := args[0]
	removed, err := t.fs.Delete(target)
	if err != nil {
		t.fail(res, err, describe("rm", target, err))
		return
	}

	if t.focus != nil {
		active := t.focus.Active()
		for _, p := range removed {
			if p == active {
				next := ""
				if files := t.fs.List(); len(files) > 0 {
					next = files[0].Path
				}
				t.focus.SetActive(next)
				break
			}
		}
	}
	t.emit(res, types.LevelLog, "Removed "+target)
}

func (t *Terminal) cat(res *Result, args []string) {
	name := args[0]
	file, err := t.fs.Get(name)
	if err != nil {
		if t.fs.IsDir(name) {
			t.fail(res, err, fmt.Sprintf("cat: %s: Is a directory", name))
			return
		}
		t.fail(res, err, describe("cat", name, err))
		return
	}
	t.emit(res, types.LevelLog, file.Content)
}

func (t *Terminal) pwd(res *Result, _ []string) {
	t.emit(res, types.LevelLog, "/")
}

func (t *Terminal) echo(res *Result, args []string) {
	t.emit(res, types.LevelLog, strings.Join(args, " "))
}

func (t *Terminal) clear(res *Result, _ []string) {
	t.log.Clear()
	res.Records = nil
	res.Cleared = true
}

func (t *Terminal) help(res *Result, _ []string) {
	verbs := make([]string, 0, len(t.commands))
	for verb := range t.commands {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)

	lines := make([]string, len(verbs))
	for i, verb := range verbs {
		cmd := t.commands[verb]
		lines[i] = fmt.Sprintf("%-24s %s", cmd.usage, cmd.summary)
	}
	t.emit(res, types.LevelLog, strings.Join(lines, "\n"))
}
