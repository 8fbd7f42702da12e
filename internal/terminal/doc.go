// Package terminal is the project shell: a tiny command interpreter over
// the in-memory file store.
//
// A line is split on whitespace into a verb and positional arguments; there
// are no flags, pipes or quoting. Every line is echoed as "$ line" and its
// output is appended to the project log, so the terminal never fails: errors
// become error records and the shell stays usable.
//
// Commands:
//   - ls [pattern|dir]  list paths, optionally filtered by a ** glob
//   - mkdir <dir>       create a directory placeholder
//   - touch <file>      create an empty file and make it active
//   - rm <path>         remove a file, or a directory and everything in it
//   - cat <file>        print a file
//   - pwd               print the working directory, always /
//   - echo [args...]    print the arguments
//   - clear             clear the log
//   - help              list commands
package terminal
