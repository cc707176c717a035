package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Show(ctx context.Context, username string) error
	Update(ctx context.Context) error
	Avatar(ctx context.Context, path string) error
	Delete(ctx context.Context) error
}

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit"/"quit". Prompts for command arguments share the same reader.
//
//	Not logged in: help, register, login, show <username>, exit
//	Logged in:     help, show [username], whoami, update, avatar <file>,
//	               delete, logout, exit
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("accounts %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if loginRequired(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: show [username], whoami, update, avatar <file>, delete, logout, exit")
			} else {
				printlnFn("Available commands: register, login, show <username>, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.WhoAmI(ctx))

		case "show":
			if len(args) == 0 && !a.isLoggedIn() {
				printlnFn("Usage: show <username>")
				continue
			}
			report(a.Show(ctx, firstArg(args)))

		case "update":
			report(a.Update(ctx))

		case "avatar":
			if len(args) == 0 {
				printlnFn("Usage: avatar <file>")
				continue
			}
			report(a.Avatar(ctx, args[0]))

		case "delete":
			report(a.Delete(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func loginRequired(cmd string) bool {
	switch cmd {
	case "logout", "update", "avatar", "delete":
		return true
	}
	return false
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", err)
	}
}
